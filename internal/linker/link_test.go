package linker

import (
	"errors"
	"testing"

	"github.com/chxlky/issue-to-shortcut/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comments(bodies ...string) []models.Comment {
	out := make([]models.Comment, len(bodies))
	for i, b := range bodies {
		out[i] = models.Comment{ID: int64(i + 1), Body: b}
	}
	return out
}

func TestExtractStoryID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		comments []models.Comment
		want     int64
	}{
		{"marker in second comment", comments("unrelated", "Linked to [sc-42](url)"), 42},
		{"earliest comment wins", comments("[sc-7]", "[sc-8]"), 7},
		{"first marker in a comment wins", comments("see [sc-11] and [sc-12]"), 11},
		{"leading zero is skipped", comments("[sc-012] then [sc-13]"), 13},
		{"link comment format", comments(":link: Linked to [[sc-99](https://app.shortcut.com/x/story/99)] (automatically added by issue-to-shortcut-story)"), 99},
		{"out of range numeral is skipped", comments("[sc-99999999999999999999]", "[sc-5]"), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractStoryID(tt.comments)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractStoryID_NotFound(t *testing.T) {
	t.Parallel()

	for _, cs := range [][]models.Comment{
		nil,
		comments("no marker here"),
		comments("[sc-0]", "sc-12", "[sc-]", "[SC-4]", "[sc-4a]"),
	} {
		_, err := ExtractStoryID(cs)
		assert.True(t, errors.Is(err, ErrStoryNotFound))
	}
}

func TestFormatLinkComment(t *testing.T) {
	t.Parallel()

	story := models.Story{ID: 1234, AppURL: "https://app.shortcut.com/org/story/1234", Name: "Fix login bug"}
	body := FormatLinkComment(story)

	assert.Equal(t, ":link: Linked to [[sc-1234](https://app.shortcut.com/org/story/1234)] (automatically added by issue-to-shortcut-story)", body)
	assert.Contains(t, body, marker(1234))
	assert.Contains(t, body, "[sc-1234](https://app.shortcut.com/org/story/1234)")

	id, err := ExtractStoryID(comments("earlier chatter", body))
	require.NoError(t, err)
	assert.Equal(t, story.ID, id)
}

// Package linker ties a GitHub issue to its Shortcut story through a
// marker embedded in an issue comment, so no external storage is needed.
//
// Marker format (v1): the literal token "[sc-<id>]", where <id> is a
// story id in decimal without leading zeros. The link comment renders it
// as a Markdown link, "[sc-<id>](<app_url>)", which still contains the
// token verbatim.
package linker

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/chxlky/issue-to-shortcut/internal/models"
)

var ErrStoryNotFound = errors.New("no linked story found in issue comments")

var markerPattern = regexp.MustCompile(`\[sc-([1-9][0-9]*)\]`)

const linkCommentFormat = ":link: Linked to [%s(%s)] (automatically added by issue-to-shortcut-story)"

func marker(storyID int64) string {
	return fmt.Sprintf("[sc-%d]", storyID)
}

// ExtractStoryID scans comments in the order given (chronological) and
// returns the id in the first marker of the first comment carrying one.
func ExtractStoryID(comments []models.Comment) (int64, error) {
	for _, comment := range comments {
		for _, m := range markerPattern.FindAllStringSubmatch(comment.Body, -1) {
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				// out of range for int64; cannot be a story id
				continue
			}
			return id, nil
		}
	}
	return 0, ErrStoryNotFound
}

// FormatLinkComment puts the story URL right after the marker, so the
// marker renders as a Markdown link to the story.
func FormatLinkComment(story models.Story) string {
	return fmt.Sprintf(linkCommentFormat, marker(story.ID), story.AppURL)
}

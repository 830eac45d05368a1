package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chxlky/issue-to-shortcut/internal/models"
	"go.uber.org/zap"
)

const DefaultShortcutAPIURL = "https://api.app.shortcut.com/api/v3"

type ShortcutClient struct {
	Client   *http.Client
	APIToken string
	BaseURL  string

	now func() time.Time
}

func NewShortcutClient(token, baseURL string, timeout time.Duration) *ShortcutClient {
	if baseURL == "" {
		baseURL = DefaultShortcutAPIURL
	}
	return &ShortcutClient{
		Client:   &http.Client{Timeout: timeout},
		APIToken: token,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// headers is built per request; nothing is shared between calls.
func (sc *ShortcutClient) headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Shortcut-Token", sc.APIToken)
	return h
}

func (sc *ShortcutClient) do(ctx context.Context, method string, payload any, out any, path ...string) error {
	apiURL := sc.BaseURL + "/" + strings.Join(path, "/")

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s request body: %w", path[0], err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", strings.ToLower(method), err)
	}
	req.Header = sc.headers()

	resp, err := sc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &RemoteError{
			Service:    "shortcut",
			Method:     method,
			URL:        apiURL,
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Shortcut %s response: %w", path[0], err)
	}
	return nil
}

func (sc *ShortcutClient) GetStory(ctx context.Context, storyID int64) (*models.Story, error) {
	var story models.Story
	if err := sc.do(ctx, http.MethodGet, nil, &story, "stories", strconv.FormatInt(storyID, 10)); err != nil {
		return nil, err
	}
	return &story, nil
}

// GetMember returns the first member whose name, mention name or email
// address equals memberName exactly, or nil when nobody matches.
func (sc *ShortcutClient) GetMember(ctx context.Context, memberName string) (*models.Member, error) {
	var members []models.Member
	if err := sc.do(ctx, http.MethodGet, nil, &members, "members"); err != nil {
		return nil, err
	}

	for i, member := range members {
		p := member.Profile
		if memberName == p.Name || memberName == p.MentionName || memberName == p.EmailAddress {
			return &members[i], nil
		}
	}
	return nil, nil
}

// GetMemberID returns "" when no member matches.
func (sc *ShortcutClient) GetMemberID(ctx context.Context, memberName string) (string, error) {
	member, err := sc.GetMember(ctx, memberName)
	if err != nil || member == nil {
		return "", err
	}
	return member.ID, nil
}

// GetMyID resolves the member that owns the API token.
func (sc *ShortcutClient) GetMyID(ctx context.Context) (string, error) {
	var me models.Member
	if err := sc.do(ctx, http.MethodGet, nil, &me, "member"); err != nil {
		return "", err
	}
	return me.ID, nil
}

func (sc *ShortcutClient) GetWorkflow(ctx context.Context, workflowName string) (*models.Workflow, error) {
	var workflows []models.Workflow
	if err := sc.do(ctx, http.MethodGet, nil, &workflows, "workflows"); err != nil {
		return nil, err
	}

	for i := range workflows {
		if workflows[i].Name == workflowName {
			return &workflows[i], nil
		}
	}
	return nil, nil
}

// GetGroupID returns "" when no group matches.
func (sc *ShortcutClient) GetGroupID(ctx context.Context, groupName string) (string, error) {
	var groups []models.Group
	if err := sc.do(ctx, http.MethodGet, nil, &groups, "groups"); err != nil {
		return "", err
	}

	for _, group := range groups {
		if group.Name == groupName {
			return group.ID, nil
		}
	}
	return "", nil
}

// GetProjectID returns 0 when no project matches.
func (sc *ShortcutClient) GetProjectID(ctx context.Context, projectName string) (int64, error) {
	var projects []models.Project
	if err := sc.do(ctx, http.MethodGet, nil, &projects, "projects"); err != nil {
		return 0, err
	}

	for _, project := range projects {
		if project.Name == projectName {
			return project.ID, nil
		}
	}
	return 0, nil
}

// CreateStory fills in the requester and timestamps when the spec leaves
// them empty, then posts it.
func (sc *ShortcutClient) CreateStory(ctx context.Context, spec models.StorySpec) (*models.Story, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if spec.RequestedByID == "" {
		myID, err := sc.GetMyID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve story requester: %w", err)
		}
		spec.RequestedByID = myID
	}

	if spec.CreatedAt == nil {
		curr := sc.now()
		spec.CreatedAt = &curr
		spec.UpdatedAt = &curr
		spec.StartedAtOverride = &curr
		spec.CompletedAtOverride = &curr
	}

	var story models.Story
	if err := sc.do(ctx, http.MethodPost, spec, &story, "stories"); err != nil {
		zap.L().Error("Story creation failed", zap.String("name", spec.Name), zap.Error(err))
		return nil, err
	}
	return &story, nil
}

func (sc *ShortcutClient) UpdateStory(ctx context.Context, storyID int64, meta models.StoryMeta) (*models.Story, error) {
	var story models.Story
	if err := sc.do(ctx, http.MethodPut, meta, &story, "stories", strconv.FormatInt(storyID, 10)); err != nil {
		zap.L().Error("Story update failed", zap.Int64("storyID", storyID), zap.Error(err))
		return nil, err
	}
	return &story, nil
}

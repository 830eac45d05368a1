package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chxlky/issue-to-shortcut/internal/models"
	"github.com/google/go-github/v72/github"
)

type GitHubClient struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubClient returns a client scoped to one repository. repoFullName
// is "owner/name"; apiURL may be empty for github.com.
func NewGitHubClient(token, repoFullName, apiURL string, timeout time.Duration) (*GitHubClient, error) {
	owner, repo, ok := strings.Cut(repoFullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository full name %q", repoFullName)
	}

	client := github.NewClient(&http.Client{Timeout: timeout}).WithAuthToken(token)
	if apiURL != "" {
		baseURL, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("unable to parse GitHub API URL: %w", err)
		}
		client.BaseURL = baseURL
	}

	return &GitHubClient{client: client, owner: owner, repo: repo}, nil
}

func (gc *GitHubClient) GetIssue(ctx context.Context, number int) (*models.Issue, error) {
	issue, _, err := gc.client.Issues.Get(ctx, gc.owner, gc.repo, number)
	if err != nil {
		return nil, translateGitHubError(err)
	}

	var assignees []string
	for _, a := range issue.Assignees {
		if a != nil {
			assignees = append(assignees, a.GetLogin())
		}
	}

	return &models.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		HTMLURL:   issue.GetHTMLURL(),
		Author:    issue.GetUser().GetLogin(),
		Assignees: assignees,
	}, nil
}

// ListComments returns every comment on the issue, oldest first.
func (gc *GitHubClient) ListComments(ctx context.Context, number int) ([]models.Comment, error) {
	opts := &github.IssueListCommentsOptions{
		Sort:        github.Ptr("created"),
		Direction:   github.Ptr("asc"),
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var comments []models.Comment
	for {
		page, resp, err := gc.client.Issues.ListComments(ctx, gc.owner, gc.repo, number, opts)
		if err != nil {
			return nil, translateGitHubError(err)
		}
		for _, c := range page {
			comments = append(comments, mapComment(c))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

func (gc *GitHubClient) CreateComment(ctx context.Context, number int, body string) (*models.Comment, error) {
	created, _, err := gc.client.Issues.CreateComment(ctx, gc.owner, gc.repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return nil, translateGitHubError(err)
	}

	comment := mapComment(created)
	return &comment, nil
}

func mapComment(c *github.IssueComment) models.Comment {
	return models.Comment{
		ID:        c.GetID(),
		Body:      c.GetBody(),
		CreatedAt: c.GetCreatedAt().Time,
	}
}

// translateGitHubError turns every non-2xx go-github error, including the
// primary and secondary rate limit errors, into a RemoteError.
func translateGitHubError(err error) error {
	var (
		errResp  *github.ErrorResponse
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
	)
	switch {
	case errors.As(err, &errResp) && errResp.Response != nil:
		return newGitHubRemoteError(errResp.Response, gitHubErrorBody{
			Message:          errResp.Message,
			Errors:           errResp.Errors,
			DocumentationURL: errResp.DocumentationURL,
		})
	case errors.As(err, &rateErr) && rateErr.Response != nil:
		return newGitHubRemoteError(rateErr.Response, gitHubErrorBody{Message: rateErr.Message})
	case errors.As(err, &abuseErr) && abuseErr.Response != nil:
		return newGitHubRemoteError(abuseErr.Response, gitHubErrorBody{Message: abuseErr.Message})
	}
	return fmt.Errorf("GitHub request failed: %w", err)
}

// gitHubErrorBody rebuilds the response body go-github already consumed.
type gitHubErrorBody struct {
	Message          string         `json:"message"`
	Errors           []github.Error `json:"errors,omitempty"`
	DocumentationURL string         `json:"documentation_url,omitempty"`
}

func newGitHubRemoteError(resp *http.Response, body gitHubErrorBody) *RemoteError {
	remote := &RemoteError{
		Service:    "github",
		StatusCode: resp.StatusCode,
		Body:       body.Message,
	}
	if b, err := json.Marshal(body); err == nil {
		remote.Body = string(b)
	}
	if req := resp.Request; req != nil {
		remote.Method = req.Method
		remote.URL = req.URL.String()
	}
	return remote
}

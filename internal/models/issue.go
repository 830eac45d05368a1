package models

import "time"

type Issue struct {
	Number    int
	Title     string
	HTMLURL   string
	Author    string
	Assignees []string
}

type Comment struct {
	ID        int64
	Body      string
	CreatedAt time.Time
}

type GitHubUser struct {
	Login string `json:"login"`
}

type IssueEventIssue struct {
	Number    int          `json:"number"`
	Title     string       `json:"title"`
	HTMLURL   string       `json:"html_url"`
	User      GitHubUser   `json:"user"`
	Assignees []GitHubUser `json:"assignees"`
}

type IssueEventRepository struct {
	FullName string `json:"full_name"`
}

// IssueEvent is the subset of the GitHub "issues" webhook payload the sync reads.
type IssueEvent struct {
	Action     string               `json:"action"`
	Issue      IssueEventIssue      `json:"issue"`
	Repository IssueEventRepository `json:"repository"`
}

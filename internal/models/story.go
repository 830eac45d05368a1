package models

import (
	"errors"
	"time"
)

const DefaultStoryType = "feature"

// StorySpec is the payload for POST /stories.
type StorySpec struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	RequestedByID string `json:"requested_by_id,omitempty"`
	StoryType     string `json:"story_type"`

	OwnerIDs        []string `json:"owner_ids"`
	GroupID         string   `json:"group_id,omitempty"`
	WorkflowStateID int64    `json:"workflow_state_id"`
	ProjectID       int64    `json:"project_id,omitempty"`

	Labels      []Label    `json:"labels"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Estimate    *int       `json:"estimate,omitempty"`
	EpicID      int64      `json:"epic_id,omitempty"`
	IterationID int64      `json:"iteration_id,omitempty"`

	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
	StartedAtOverride   *time.Time `json:"started_at_override,omitempty"`
	CompletedAtOverride *time.Time `json:"completed_at_override,omitempty"`

	Archived        bool   `json:"archived"`
	ExternalID      string `json:"external_id,omitempty"`
	StoryTemplateID string `json:"story_template_id,omitempty"`

	Comments      []map[string]any `json:"comments"`
	Tasks         []map[string]any `json:"tasks"`
	StoryLinks    []map[string]any `json:"story_links"`
	ExternalLinks []string         `json:"external_links"`
	FollowerIDs   []string         `json:"follower_ids"`
	FileIDs       []int64          `json:"file_ids"`
	LinkedFileIDs []int64          `json:"linked_file_ids"`
}

type Label struct {
	Name string `json:"name"`
}

// NewStorySpec returns a spec with the story type defaulted and every
// collection empty rather than nil, so it serializes as [].
func NewStorySpec(name string) StorySpec {
	return StorySpec{
		Name:          name,
		StoryType:     DefaultStoryType,
		OwnerIDs:      []string{},
		Labels:        []Label{},
		Comments:      []map[string]any{},
		Tasks:         []map[string]any{},
		StoryLinks:    []map[string]any{},
		ExternalLinks: []string{},
		FollowerIDs:   []string{},
		FileIDs:       []int64{},
		LinkedFileIDs: []int64{},
	}
}

func (s StorySpec) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("story spec: name is required"))
	}
	if s.Description == "" {
		errs = append(errs, errors.New("story spec: description is required"))
	}
	if s.WorkflowStateID == 0 {
		errs = append(errs, errors.New("story spec: workflow_state_id is required"))
	}
	return errors.Join(errs...)
}

// StoryMeta is the partial payload for PUT /stories/{id}. A nil
// WorkflowStateID leaves the story's state untouched.
type StoryMeta struct {
	Name            string   `json:"name"`
	OwnerIDs        []string `json:"owner_ids"`
	WorkflowStateID *int64   `json:"workflow_state_id,omitempty"`
}

type Story struct {
	ID              int64    `json:"id"`
	AppURL          string   `json:"app_url"`
	Name            string   `json:"name"`
	WorkflowStateID int64    `json:"workflow_state_id,omitempty"`
	OwnerIDs        []string `json:"owner_ids,omitempty"`
}

type MemberProfile struct {
	Name         string `json:"name"`
	MentionName  string `json:"mention_name"`
	EmailAddress string `json:"email_address"`
}

type Member struct {
	ID      string        `json:"id"`
	Profile MemberProfile `json:"profile"`
}

type WorkflowState struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Workflow struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	States []WorkflowState `json:"states"`
}

// FirstState and LastState assume the workflow has at least one state.
func (w Workflow) FirstState() WorkflowState {
	return w.States[0]
}

func (w Workflow) LastState() WorkflowState {
	return w.States[len(w.States)-1]
}

type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

package reconcile

import (
	"fmt"

	"github.com/chxlky/issue-to-shortcut/internal/models"
)

const storyNamePrefix = "[Github Issue] "

// MakeStorySpec builds the creation payload. New stories always start in
// the workflow's first state; the update pass that follows applies the
// action's state.
func MakeStorySpec(issue *models.Issue, s *Setting) models.StorySpec {
	spec := models.NewStorySpec(issue.Title)
	spec.Description = fmt.Sprintf("Automatically created by [this issue](%s)", issue.HTMLURL)
	spec.RequestedByID = s.ResolveRequester(issue.Author)
	spec.GroupID = s.GroupID
	spec.WorkflowStateID = s.InitialStateID
	spec.ProjectID = s.ProjectID
	return spec
}

func MakeStoryMeta(issue *models.Issue, s *Setting) models.StoryMeta {
	meta := models.StoryMeta{
		Name:     storyNamePrefix + issue.Title,
		OwnerIDs: s.ResolveOwners(issue.Assignees),
	}
	if id, ok := s.ResolveWorkflowState(s.EventAction); ok {
		meta.WorkflowStateID = &id
	}
	return meta
}

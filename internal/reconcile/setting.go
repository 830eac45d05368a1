// Package reconcile translates GitHub issue events into Shortcut story
// fields: who requested and owns the story, and which workflow state it is in.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/chxlky/issue-to-shortcut/config"
	"github.com/chxlky/issue-to-shortcut/internal/models"
	"go.uber.org/zap"
)

var (
	ErrWorkflowNotFound      = errors.New("shortcut workflow not found")
	ErrEmptyWorkflow         = errors.New("shortcut workflow has no states")
	ErrDefaultMemberNotFound = errors.New("shortcut default member not found")
)

// Directory resolves Shortcut names to ids. A name that does not resolve
// yields a zero value and a nil error.
type Directory interface {
	GetWorkflow(ctx context.Context, workflowName string) (*models.Workflow, error)
	GetMemberID(ctx context.Context, memberName string) (string, error)
	GetGroupID(ctx context.Context, groupName string) (string, error)
	GetProjectID(ctx context.Context, projectName string) (int64, error)
}

// Setting is the resolved configuration for one run. It is not modified
// after NewSetting returns.
type Setting struct {
	EventAction string
	IssueNumber int
	RepoName    string

	// InitialStateID is the first state of the configured workflow, used
	// for every story creation regardless of action.
	InitialStateID int64
	GroupID        string
	ProjectID      int64
	DefaultUserID  string

	// UserIDs maps GitHub login to Shortcut member id.
	UserIDs map[string]string
	// ActionStateIDs maps GitHub issue action to workflow state id.
	ActionStateIDs map[string]int64
}

func NewSetting(ctx context.Context, dir Directory, env *config.Environ, event *models.IssueEvent) (*Setting, error) {
	workflow, err := dir.GetWorkflow(ctx, env.Workflow)
	if err != nil {
		return nil, fmt.Errorf("looking up workflow: %w", err)
	}
	if workflow == nil {
		return nil, fmt.Errorf("%w: %q", ErrWorkflowNotFound, env.Workflow)
	}
	if len(workflow.States) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyWorkflow, env.Workflow)
	}

	setting := &Setting{
		EventAction:    event.Action,
		IssueNumber:    event.Issue.Number,
		RepoName:       event.Repository.FullName,
		InitialStateID: workflow.FirstState().ID,
	}

	if env.Team != "" {
		if setting.GroupID, err = dir.GetGroupID(ctx, env.Team); err != nil {
			return nil, fmt.Errorf("looking up group: %w", err)
		}
		if setting.GroupID == "" {
			zap.L().Warn("Shortcut group not found; stories will have no group", zap.String("team", env.Team))
		}
	}

	if env.Project != "" {
		if setting.ProjectID, err = dir.GetProjectID(ctx, env.Project); err != nil {
			return nil, fmt.Errorf("looking up project: %w", err)
		}
		if setting.ProjectID == 0 {
			zap.L().Warn("Shortcut project not found; stories will have no project", zap.String("project", env.Project))
		}
	}

	if setting.DefaultUserID, err = dir.GetMemberID(ctx, env.DefaultUserName); err != nil {
		return nil, fmt.Errorf("looking up default member: %w", err)
	}
	if setting.DefaultUserID == "" {
		return nil, fmt.Errorf("%w: %q", ErrDefaultMemberNotFound, env.DefaultUserName)
	}

	if setting.UserIDs, err = resolveUserIDs(ctx, dir, env.UserMap); err != nil {
		return nil, err
	}
	setting.ActionStateIDs = resolveActionStateIDs(workflow, env.StateMap)

	return setting, nil
}

// resolveUserIDs drops logins whose Shortcut user cannot be found; those
// fall back to the default member at resolution time.
func resolveUserIDs(ctx context.Context, dir Directory, userMap map[string]string) (map[string]string, error) {
	ids := make(map[string]string, len(userMap))
	for login, name := range userMap {
		id, err := dir.GetMemberID(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("looking up member for %s: %w", login, err)
		}
		if id == "" {
			zap.L().Warn("Shortcut member not found; dropping user mapping", zap.String("login", login), zap.String("member", name))
			continue
		}
		ids[login] = id
	}
	return ids, nil
}

// resolveActionStateIDs maps configured state names onto the workflow's
// state ids, then fills the defaults for opened, reopened and closed when
// they were not configured.
func resolveActionStateIDs(workflow *models.Workflow, stateMap map[string]string) map[string]int64 {
	byName := make(map[string]int64, len(workflow.States))
	for _, state := range workflow.States {
		byName[state.Name] = state.ID
	}

	ids := make(map[string]int64, len(stateMap)+3)
	for action, stateName := range stateMap {
		id, ok := byName[stateName]
		if !ok {
			zap.L().Warn("Workflow state not found; dropping state mapping",
				zap.String("action", action), zap.String("state", stateName), zap.String("workflow", workflow.Name))
			continue
		}
		ids[action] = id
	}

	setDefault(ids, "opened", workflow.FirstState().ID)
	setDefault(ids, "reopened", workflow.FirstState().ID)
	setDefault(ids, "closed", workflow.LastState().ID)
	return ids
}

func setDefault(m map[string]int64, key string, value int64) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func (s *Setting) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("action", s.EventAction),
		zap.Int("issue", s.IssueNumber),
		zap.String("repo", s.RepoName),
		zap.Int64("initialStateID", s.InitialStateID),
		zap.String("groupID", s.GroupID),
		zap.Int64("projectID", s.ProjectID),
		zap.String("defaultUserID", s.DefaultUserID),
		zap.Any("userIDs", s.UserIDs),
		zap.Any("actionStateIDs", s.ActionStateIDs),
	}
}

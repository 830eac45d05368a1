package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/chxlky/issue-to-shortcut/internal/linker"
	"github.com/chxlky/issue-to-shortcut/internal/models"
	"github.com/chxlky/issue-to-shortcut/internal/reconcile"
	"go.uber.org/zap"
)

const OpenedAction = "opened"

type StoryService interface {
	GetStory(ctx context.Context, storyID int64) (*models.Story, error)
	CreateStory(ctx context.Context, spec models.StorySpec) (*models.Story, error)
	UpdateStory(ctx context.Context, storyID int64, meta models.StoryMeta) (*models.Story, error)
}

type IssueService interface {
	GetIssue(ctx context.Context, number int) (*models.Issue, error)
	ListComments(ctx context.Context, number int) ([]models.Comment, error)
	CreateComment(ctx context.Context, number int, body string) (*models.Comment, error)
}

type Handler struct {
	Stories StoryService
	Issues  IssueService
	Setting *reconcile.Setting
}

// HandleIssueEvent runs at most one create and one update. An "opened"
// event creates the story and posts the link comment, then falls through
// to the update pass like every other action so owners and state are
// applied the same way. A missing link ends the run without error.
func (h *Handler) HandleIssueEvent(ctx context.Context) error {
	issue, err := h.Issues.GetIssue(ctx, h.Setting.IssueNumber)
	if err != nil {
		return fmt.Errorf("fetching issue #%d: %w", h.Setting.IssueNumber, err)
	}

	if h.Setting.EventAction == OpenedAction {
		if err := h.createLinkedStory(ctx, issue); err != nil {
			return err
		}
	}

	return h.updateLinkedStory(ctx, issue)
}

func (h *Handler) createLinkedStory(ctx context.Context, issue *models.Issue) error {
	spec := reconcile.MakeStorySpec(issue, h.Setting)

	story, err := h.Stories.CreateStory(ctx, spec)
	if err != nil {
		return fmt.Errorf("creating story: %w", err)
	}
	zap.L().Info("Story created", zap.Int64("storyID", story.ID), zap.String("name", story.Name))

	comment, err := h.Issues.CreateComment(ctx, issue.Number, linker.FormatLinkComment(*story))
	if err != nil {
		return fmt.Errorf("posting link comment: %w", err)
	}
	zap.L().Info("Link comment posted", zap.Int("issue", issue.Number), zap.Int64("commentID", comment.ID))

	return nil
}

func (h *Handler) updateLinkedStory(ctx context.Context, issue *models.Issue) error {
	comments, err := h.Issues.ListComments(ctx, issue.Number)
	if err != nil {
		return fmt.Errorf("listing comments: %w", err)
	}

	storyID, err := linker.ExtractStoryID(comments)
	if errors.Is(err, linker.ErrStoryNotFound) {
		zap.L().Info("No linked story found in the issue", zap.Int("issue", issue.Number))
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := h.Stories.GetStory(ctx, storyID); err != nil {
		return fmt.Errorf("fetching story %d: %w", storyID, err)
	}

	meta := reconcile.MakeStoryMeta(issue, h.Setting)
	if _, err := h.Stories.UpdateStory(ctx, storyID, meta); err != nil {
		return fmt.Errorf("updating story %d: %w", storyID, err)
	}

	fields := []zap.Field{
		zap.Int64("storyID", storyID),
		zap.String("name", meta.Name),
		zap.Strings("ownerIDs", meta.OwnerIDs),
	}
	if meta.WorkflowStateID != nil {
		fields = append(fields, zap.Int64("workflowStateID", *meta.WorkflowStateID))
	}
	zap.L().Info("Story updated", fields...)

	return nil
}

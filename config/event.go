package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chxlky/issue-to-shortcut/internal/models"
)

func LoadEvent(path string) (*models.IssueEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Keys: []string{KeyEventPath}, Reason: err.Error()}
	}

	var event models.IssueEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, &ConfigError{Keys: []string{KeyEventPath}, Reason: fmt.Sprintf("malformed event payload: %v", err)}
	}

	var missing []string
	if event.Action == "" {
		missing = append(missing, "action")
	}
	if event.Issue.Number == 0 {
		missing = append(missing, "issue.number")
	}
	if event.Repository.FullName == "" {
		missing = append(missing, "repository.full_name")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Keys: []string{KeyEventPath}, Reason: fmt.Sprintf("event payload is missing %v", missing)}
	}

	return &event, nil
}

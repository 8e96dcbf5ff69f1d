package app

import (
	"context"

	"github.com/jiaz/jiaz/internal/pkg/ai"
	"github.com/jiaz/jiaz/internal/pkg/config"
	"github.com/jiaz/jiaz/internal/pkg/jira"
)

// JiraClient is the subset of the JIRA client the analyze workflows use.
type JiraClient interface {
	CurrentUser(ctx context.Context) (*jira.User, error)
	Issue(ctx context.Context, key string) (*jira.Issue, error)
	Children(ctx context.Context, key string) ([]jira.Issue, error)
	CurrentSprintIssues(ctx context.Context, q jira.SprintQuery) ([]jira.Issue, *jira.Sprint, error)
	BrowseURL(key string) string
}

// ClientFactory builds a JIRA client for one config block.
type ClientFactory func(block config.Block) (JiraClient, error)

// Completer sends a prompt through the LLM provider chain for a block.
type Completer interface {
	Complete(ctx context.Context, prompt string, block config.Block) (*ai.Completion, error)
}

// BlockResolver picks the config block for an invocation.
type BlockResolver interface {
	ResolveActive(override string) (string, config.Block, error)
}

// NewJiraClientFactory returns a factory that applies the runtime JIRA
// settings to the block's server and token.
func NewJiraClientFactory(settings config.JiraSettings) ClientFactory {
	return func(block config.Block) (JiraClient, error) {
		return jira.NewClient(jira.Options{
			ServerURL:         block[config.KeyServerURL],
			Token:             block[config.KeyUserToken],
			Timeout:           settings.RequestTimeout,
			DialTimeout:       settings.DialTimeout,
			RequestsPerSecond: settings.RequestsPerSecond,
			Burst:             settings.Burst,
			MaxResults:        settings.MaxResults,
			Fields:            FieldMap(settings.Fields),
		})
	}
}

// FieldMap converts the configured custom field ids.
func FieldMap(f config.FieldsSettings) jira.FieldMap {
	return jira.FieldMap{
		StoryPoints:         f.StoryPoints,
		OriginalStoryPoints: f.OriginalStoryPoints,
		WorkType:            f.WorkType,
		Sprints:             f.Sprints,
		EpicLink:            f.EpicLink,
		Progress:            f.Progress,
	}
}

// SprintQuery reads the sprint selection keys of a block.
func SprintQuery(block config.Block, mine bool) jira.SprintQuery {
	return jira.SprintQuery{
		Project:     block[config.KeyJiraProject],
		BacklogName: block[config.KeyJiraBacklogName],
		BoardID:     block[config.KeyJiraSprintboardID],
		BoardName:   block[config.KeyJiraBoardName],
		SprintName:  block[config.KeyJiraSprintboardName],
		Mine:        mine,
	}
}

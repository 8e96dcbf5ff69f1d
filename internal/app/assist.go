package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jiaz/jiaz/internal/pkg/ai"
	"github.com/jiaz/jiaz/internal/pkg/config"
	"github.com/jiaz/jiaz/internal/pkg/jira"
	"github.com/jiaz/jiaz/internal/pkg/report"
)

const digestTimeLayout = "2006-01-02 15:04"

// RundownJSON is the JSON form of an AI rundown.
type RundownJSON struct {
	Key      string `json:"issue_key"`
	Provider string `json:"provider"`
	Rundown  string `json:"rundown"`
}

// Digest condenses an issue and its children for the rundown prompt.
func Digest(issue jira.Issue, children []jira.Issue) ai.IssueDigest {
	d := digestOf(issue)
	for _, child := range children {
		d.Children = append(d.Children, digestOf(child))
	}
	return d
}

func digestOf(issue jira.Issue) ai.IssueDigest {
	d := ai.IssueDigest{
		Key:         issue.Key,
		Title:       issue.Summary,
		Description: issue.Description,
		Status:      issue.Status,
		Updated:     formatDigestTime(issue.Updated),
	}
	if issue.Assignee != nil {
		d.Assignee = issue.Assignee.DisplayName
	}
	if issue.Progress != "" && issue.Progress != jira.ProgressNotFound {
		d.StatusSummary = fmt.Sprintf("%s complete", issue.Progress)
	}
	for _, c := range issue.Comments {
		d.Comments = append(d.Comments, ai.CommentDigest{
			Author:  c.Author.DisplayName,
			Created: formatDigestTime(c.Created),
			Body:    c.Body,
		})
	}
	return d
}

func formatDigestTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(digestTimeLayout)
}

func (s *AnalyzeService) complete(ctx context.Context, block config.Block, prompt, status string) (*ai.Completion, error) {
	spinner := s.deps.UI.ShowSpinner(status)
	spinner.Start()
	completion, err := s.deps.LLM.Complete(ctx, prompt, block)
	spinner.Stop()
	return completion, err
}

func (s *AnalyzeService) rundown(ctx context.Context, block config.Block, issue jira.Issue, children []jira.Issue, format report.Format) error {
	prompt, err := ai.BuildRundownPrompt(Digest(issue, children))
	if err != nil {
		return fmt.Errorf("failed to build rundown prompt: %w", err)
	}

	completion, err := s.complete(ctx, block, prompt, fmt.Sprintf("Summarizing %s...", issue.Key))
	if err != nil {
		return err
	}

	if format == report.FormatJSON {
		enc := json.NewEncoder(s.deps.Out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		return enc.Encode(RundownJSON{Key: issue.Key, Provider: completion.Provider, Rundown: completion.Text})
	}

	rendered, err := s.deps.UI.RenderMarkdown(completion.Text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.deps.Out, rendered)
	return err
}

func (s *AnalyzeService) marshalDescription(ctx context.Context, block config.Block, issue jira.Issue, format report.Format) error {
	prompt, err := ai.BuildDescriptionPrompt(issue.Summary, issue.Description)
	if err != nil {
		return fmt.Errorf("failed to build description prompt: %w", err)
	}

	completion, err := s.complete(ctx, block, prompt, fmt.Sprintf("Standardizing the description of %s...", issue.Key))
	if err != nil {
		return err
	}

	return s.deps.Renderer.RenderComparison(s.deps.Out, report.DescriptionComparison{
		Original:     issue.Description,
		Standardized: completion.Text,
	}, format)
}

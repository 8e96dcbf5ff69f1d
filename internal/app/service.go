// Package app contains the application layer with business orchestration logic.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jiaz/jiaz/internal/pkg/config"
	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
	"github.com/jiaz/jiaz/internal/pkg/jira"
	"github.com/jiaz/jiaz/internal/pkg/report"
	"github.com/jiaz/jiaz/internal/pkg/ui"
)

// SprintOptions contains options for `analyze sprint`.
type SprintOptions struct {
	Perspective string
	Show        string
	Output      string
	ConfigName  string
	Mine        bool
}

// Validate checks the options before any config or network access.
func (o *SprintOptions) Validate() (report.Perspective, report.Format, error) {
	p := report.Perspective(strings.TrimSpace(o.Perspective))
	if p == "" {
		p = report.PerspectiveStatus
	}
	known := false
	for _, candidate := range report.Perspectives {
		if p == candidate {
			known = true
			break
		}
	}
	if !known {
		return "", "", apperrors.Newf(apperrors.ErrInvalidArguments, "invalid --wrt value %q", o.Perspective).
			WithSuggestion("Use one of: issue, owner, status, epic")
	}

	f, err := parseOutput(o.Output, report.FormatJSON, report.FormatTable, report.FormatCSV)
	if err != nil {
		return "", "", err
	}
	return p, f, nil
}

// IssueOptions contains options for `analyze issue`.
type IssueOptions struct {
	Key                string
	Show               string
	Output             string
	ConfigName         string
	Rundown            bool
	MarshalDescription bool
}

// Validate checks the options before any config or network access.
func (o *IssueOptions) Validate() (report.Format, error) {
	if o.Rundown && o.MarshalDescription {
		return "", apperrors.NewInvalidArgumentsError("cannot use --marshal-description and --rundown together").
			WithSuggestion("Choose one of --rundown or --marshal-description")
	}
	if strings.TrimSpace(o.Key) == "" {
		return "", apperrors.NewInvalidArgumentsError("issue id is required")
	}
	return parseOutput(o.Output, report.FormatJSON, report.FormatTable)
}

func parseOutput(s string, allowed ...report.Format) (report.Format, error) {
	if strings.TrimSpace(s) == "" {
		return report.FormatJSON, nil
	}
	f, err := report.ParseFormat(strings.TrimSpace(s), allowed...)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInvalidArguments, "invalid --output value")
	}
	return f, nil
}

// Deps are the collaborators of AnalyzeService.
type Deps struct {
	Blocks    BlockResolver
	NewClient ClientFactory
	LLM       Completer
	UI        ui.Manager
	Renderer  *report.Renderer
	Out       io.Writer
	// StaleDays overrides report.DefaultStaleDays when positive.
	StaleDays int
	Now       func() time.Time
}

// AnalyzeService orchestrates the analyze workflows:
// resolve block → fetch from JIRA → optionally prompt the LLM → render.
type AnalyzeService struct {
	deps Deps
}

// NewAnalyzeService creates a new AnalyzeService with the given dependencies.
func NewAnalyzeService(deps Deps) *AnalyzeService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.StaleDays <= 0 {
		deps.StaleDays = report.DefaultStaleDays
	}
	if deps.Renderer == nil {
		deps.Renderer = report.NewRenderer(false, 0)
	}
	return &AnalyzeService{deps: deps}
}

// connect resolves the block and builds a JIRA client for it.
func (s *AnalyzeService) connect(configName string) (string, config.Block, JiraClient, error) {
	name, block, err := s.deps.Blocks.ResolveActive(configName)
	if err != nil {
		return "", nil, nil, err
	}
	apperrors.Debug("Using config block '%s'", name)

	client, err := s.deps.NewClient(block)
	if err != nil {
		return "", nil, nil, attributeBlock(err, name)
	}
	return name, block, client, nil
}

// attributeBlock names the block in missing-field errors raised below the
// config layer.
func attributeBlock(err error, name string) error {
	appErr := apperrors.GetAppError(err)
	if appErr == nil || appErr.Code != apperrors.ErrMissingRequiredField {
		return err
	}
	if _, ok := appErr.Context["block"]; ok {
		return err
	}
	key, _ := appErr.Context["key"].(string)
	return apperrors.NewMissingRequiredFieldError(name, key)
}

// AnalyzeSprint reports on the active sprint of the block's board.
func (s *AnalyzeService) AnalyzeSprint(ctx context.Context, opts *SprintOptions) error {
	if opts == nil {
		opts = &SprintOptions{}
	}
	perspective, format, err := opts.Validate()
	if err != nil {
		return err
	}

	name, block, client, err := s.connect(opts.ConfigName)
	if err != nil {
		return err
	}

	spinner := s.deps.UI.ShowSpinner("Fetching active sprint...")
	spinner.Start()
	query := SprintQuery(block, opts.Mine)
	if opts.Mine {
		user, err := client.CurrentUser(ctx)
		if err != nil {
			spinner.Stop()
			return err
		}
		query.Assignee = user.Name
		apperrors.Debug("Restricting sprint issues to %s (%s)", user.DisplayName, user.Name)
	}
	issues, sprint, err := client.CurrentSprintIssues(ctx, query)
	spinner.Stop()
	if err != nil {
		return attributeBlock(err, name)
	}
	apperrors.Info("Sprint '%s' returned %d issues", sprint.Name, len(issues))

	rows, unassigned := report.BuildSprintRows(issues, report.SprintOptions{
		BrowseURL: client.BrowseURL,
		Now:       s.deps.Now(),
		StaleDays: s.deps.StaleDays,
	})
	if len(unassigned) > 0 {
		s.deps.UI.ShowWarning(fmt.Sprintf("Skipped %d unassigned issues: %s", len(unassigned), strings.Join(unassigned, ", ")))
	}

	table, err := report.SprintView(perspective, rows)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidArguments, "invalid --wrt value")
	}
	table = report.FilterColumns(table, report.ParseColumns(opts.Show))
	if format == report.FormatTable {
		if perspective == report.PerspectiveIssue {
			table = report.SortRows(report.MarkChangedEstimates(table), 0)
		}
		s.deps.UI.ShowInfo(fmt.Sprintf("Sprint: %s", sprint.Name))
	}

	return s.deps.Renderer.Render(s.deps.Out, table, format, false)
}

// AnalyzeIssue shows one issue, its AI rundown or its standardized description.
func (s *AnalyzeService) AnalyzeIssue(ctx context.Context, opts *IssueOptions) error {
	if opts == nil {
		opts = &IssueOptions{}
	}
	format, err := opts.Validate()
	if err != nil {
		return err
	}

	_, block, client, err := s.connect(opts.ConfigName)
	if err != nil {
		return err
	}

	spinner := s.deps.UI.ShowSpinner(fmt.Sprintf("Fetching %s...", strings.TrimSpace(opts.Key)))
	spinner.Start()
	issue, err := client.Issue(ctx, opts.Key)
	if err != nil {
		spinner.Stop()
		return err
	}

	selected := report.ParseColumns(opts.Show)
	var children []jira.Issue
	if opts.Rundown || report.WantsField(selected, report.FieldChildren) {
		spinner.UpdateText(fmt.Sprintf("Fetching children of %s...", issue.Key))
		children, err = client.Children(ctx, issue.Key)
		if err != nil {
			spinner.Stop()
			return err
		}
	}
	spinner.Stop()

	switch {
	case opts.Rundown:
		return s.rundown(ctx, block, *issue, children, format)
	case opts.MarshalDescription:
		return s.marshalDescription(ctx, block, *issue, format)
	}

	table := report.IssueTable(report.IssueData{
		Issue:     *issue,
		Children:  children,
		BrowseURL: client.BrowseURL,
		Now:       s.deps.Now(),
	}, selected)
	return s.deps.Renderer.Render(s.deps.Out, table, format, true)
}

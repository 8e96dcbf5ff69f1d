package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jiaz/jiaz/internal/app"
	"github.com/jiaz/jiaz/internal/pkg/ai"
)

// NewAnalyzeCmd creates the analyze command and its subcommands.
func NewAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze JIRA sprints and issues",
	}

	analyzeCmd.AddCommand(newAnalyzeSprintCmd())
	analyzeCmd.AddCommand(newAnalyzeIssueCmd())

	return analyzeCmd
}

// newService wires an AnalyzeService from the runtime.
func newService(cmd *cobra.Command, rt *runtime) *app.AnalyzeService {
	return app.NewAnalyzeService(app.Deps{
		Blocks:    rt.store,
		NewClient: app.NewJiraClientFactory(rt.settings.Jira),
		LLM:       ai.NewDispatcher(ai.DefaultSpecs(rt.settings.LLM)...),
		UI:        rt.ui,
		Renderer:  rt.renderer,
		Out:       cmd.OutOrStdout(),
		StaleDays: rt.settings.Jira.StaleCommentDays,
	})
}

// newAnalyzeSprintCmd creates the 'analyze sprint' subcommand.
func newAnalyzeSprintCmd() *cobra.Command {
	opts := &app.SprintOptions{}

	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Summarize the active sprint",
		Long: `Fetch the backlog issues of the active sprint and summarize them.

Perspectives (--wrt):
  status  issue count and story points per status (default)
  owner   stories and points per assignee and status
  epic    issue count, closed count and points per epic
  issue   one row per issue with estimates and the latest comment

Only Bugs, Stories and Tasks with an assignee are counted.

Examples:
  jiaz analyze sprint
  jiaz analyze sprint --wrt issue --output table --show "Issue Key,Status"
  jiaz analyze sprint --mine -c team-b`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := opts.Validate(); err != nil {
				return err
			}
			rt, err := loadRuntime(cmd, true)
			if err != nil {
				return err
			}
			return newService(cmd, rt).AnalyzeSprint(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Perspective, "wrt", "w", "status", "Perspective: issue, owner, status or epic")
	cmd.Flags().StringVarP(&opts.Show, "show", "s", "", "Comma separated column names to show")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "json", "Output format: json, table or csv")
	cmd.Flags().StringVarP(&opts.ConfigName, "config-name", "c", "", "Config block to use (default: the active block)")
	cmd.Flags().BoolVarP(&opts.Mine, "mine", "m", false, "Only issues assigned to you")

	return cmd
}

// newAnalyzeIssueCmd creates the 'analyze issue' subcommand.
func newAnalyzeIssueCmd() *cobra.Command {
	opts := &app.IssueOptions{}

	cmd := &cobra.Command{
		Use:   "issue <id>",
		Short: "Show one issue, its AI rundown or a standardized description",
		Long: `Show the fields of one issue.

--rundown asks the language model for a progress summary of the issue, its
children and comments. --marshal-description asks it to rewrite the
description in the standard layout and shows it next to the original. The two
cannot be combined.

Fields for --show: key, title, type, assignee, reporter, status, priority,
labels, created, updated, story_points, original_story_points, sprints, epic,
progress, children, description.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Key = args[0]
			if _, err := opts.Validate(); err != nil {
				return err
			}
			rt, err := loadRuntime(cmd, true)
			if err != nil {
				return err
			}
			return newService(cmd, rt).AnalyzeIssue(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Show, "show", "s", "", "Comma separated field names to show")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "json", "Output format: json or table")
	cmd.Flags().StringVarP(&opts.ConfigName, "config-name", "c", "", "Config block to use (default: the active block)")
	cmd.Flags().BoolVarP(&opts.Rundown, "rundown", "r", false, "Generate an AI progress summary")
	cmd.Flags().BoolVarP(&opts.MarshalDescription, "marshal-description", "m", false, "Standardize the description with AI")

	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jiaz/jiaz/internal/pkg/ai"
	"github.com/jiaz/jiaz/internal/pkg/config"
	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
	"github.com/jiaz/jiaz/internal/pkg/security"
	"github.com/jiaz/jiaz/internal/pkg/ui"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage JIRA configuration blocks",
		Long: `Manage named configuration blocks.

Each block holds the connection details for one JIRA server or team. Blank
fields fall back to the 'default' block. One block is active at a time;
analyze commands use it unless --config-name is given.

Configuration is stored in ~/.jiaz/config.toml. user_token and gemini_api_key
are base64-encoded on disk, which hides them from casual view but is not
encryption.`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigGetCmd())
	configCmd.AddCommand(newConfigUseCmd())
	configCmd.AddCommand(newConfigListCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' subcommand.
func newConfigInitCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration block",
		Long: `Create a configuration block by answering prompts.

The first block is named 'default' and becomes active. Later blocks need a new
name; fields left blank fall back to the default block.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return apperrors.NewInvalidArgumentsError("config init needs an interactive terminal").
					WithSuggestion("Use 'jiaz config set KEY VALUE --name NAME' instead")
			}
			rt, err := loadRuntime(cmd, false)
			if err != nil {
				return err
			}

			setup := &ui.Setup{
				Store:     rt.store,
				Validator: ai.NewKeyValidator(rt.settings.LLM),
				Prompter:  newPrompter(),
				UI:        rt.ui,
			}
			_, err = setup.Run(cmd.Context(), name)
			return err
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the block to create")
	return cmd
}

// newConfigSetCmd creates the 'config set' subcommand.
func newConfigSetCmd() *cobra.Command {
	var (
		name string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set one key in a configuration block, creating the block if needed.

Without --name the active block is changed. Changing an existing key of the
active block asks for confirmation unless --yes is given. An empty value
removes the key. gemini_api_key is checked against Gemini before it is saved.

Examples:
  jiaz config set server_url https://issues.example.com
  jiaz config set user_token <token> --name team-b
  jiaz config set jira_sprintboard_id 1234`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			rt, err := loadRuntime(cmd, yes)
			if err != nil {
				return err
			}

			active := ""
			existing := config.Block{}
			if f, err := rt.store.Load(); err == nil {
				active, _ = f.ActiveBlock()
				if name == "" {
					name = active
				}
				if b, ok := f.Block(name); ok {
					existing = b
				}
			} else if !apperrors.HasCode(err, apperrors.ErrConfigMissing) {
				return err
			}
			if name == "" {
				name = config.DefaultBlockName
			}

			old, isUpdate := existing[key]
			if isUpdate && name == active && old != value {
				confirmed, err := rt.ui.PromptConfirm(fmt.Sprintf(
					"You are updating key '%s' in active config block '%s' from '%s' to '%s'. Continue?",
					key, name, displayValue(key, old), displayValue(key, value)))
				if err != nil {
					return apperrors.Wrap(err, apperrors.ErrInvalidArguments, "failed to prompt for confirmation")
				}
				if !confirmed {
					return apperrors.NewInvalidArgumentsError("update aborted by user")
				}
			}

			if err := rt.store.Set(cmd.Context(), name, key, value); err != nil {
				return err
			}

			verb := "Config added"
			if isUpdate {
				verb = "Config updated"
			}
			rt.ui.ShowSuccess(fmt.Sprintf("%s in '%s': %s=%s", verb, name, key, displayValue(key, value)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Target config block (default: the active block)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask before overwriting a key of the active block")
	return cmd
}

// displayValue masks sensitive values for echoing.
func displayValue(key, value string) string {
	if config.IsSensitive(key) && value != "" {
		return security.MaskAPIKey(value)
	}
	return value
}

// newConfigGetCmd creates the 'config get' subcommand.
func newConfigGetCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Long: `Print the decoded value of one key.

Without --name the active block is read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, true)
			if err != nil {
				return err
			}

			if name == "" {
				active, _, err := rt.store.ResolveActive("")
				if err != nil {
					return err
				}
				name = active
			}

			value, err := rt.store.Get(name, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Config block to read (default: the active block)")
	return cmd
}

// newConfigUseCmd creates the 'config use' subcommand.
func newConfigUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Make a configuration block active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, true)
			if err != nil {
				return err
			}
			if err := rt.store.Use(args[0]); err != nil {
				return err
			}
			rt.ui.ShowSuccess(fmt.Sprintf("Active configuration set to '%s'", args[0]))
			return nil
		},
	}
}

// newConfigListCmd creates the 'config list' subcommand.
func newConfigListCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configuration blocks",
		Long: `List the configuration blocks and the active one.

With --name, print every key of that block with sensitive values decoded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !rt.store.Exists() && name == "" {
				fmt.Fprintln(out, "No configuration found.")
				return nil
			}
			if name != "" {
				block, err := rt.store.GetBlock(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Configuration for '%s':\n", name)
				for _, key := range block.Keys() {
					fmt.Fprintf(out, "%s = %s\n", key, block[key])
				}
				return nil
			}

			names, active, err := rt.store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(out, "No configuration found.")
				return nil
			}
			fmt.Fprintln(out, "Available configurations:")
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			if active == "" {
				active = "(none)"
			}
			fmt.Fprintf(out, "\nActive configuration: %s\n", active)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Show the keys of one block")
	return cmd
}

package cmd

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/jiaz/jiaz/internal/pkg/ai"
	"github.com/jiaz/jiaz/internal/pkg/config"
	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
	"github.com/jiaz/jiaz/internal/pkg/report"
	"github.com/jiaz/jiaz/internal/pkg/ui"
)

// Variables to allow swapping terminal detection and prompts in tests.
var (
	stdoutIsTerminal = func() bool { return term.IsTerminal(os.Stdout.Fd()) }
	isInteractive    = ui.IsInteractive
	newPrompter      = func() ui.Prompter { return ui.HuhPrompter{} }
)

// runtime bundles what every command needs: resolved settings, the block
// store and the terminal UI.
type runtime struct {
	settings *config.Settings
	store    *config.Store
	ui       ui.Manager
	renderer *report.Renderer
	color    bool
}

// loadRuntime resolves settings (flags > env > settings file > defaults) and
// builds the store and UI. nonInteractive forces the prompt-free UI.
func loadRuntime(cmd *cobra.Command, nonInteractive bool) (*runtime, error) {
	settingsPath, _ := cmd.Flags().GetString("settings")
	mgr, err := config.NewSettingsManager(settingsPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create settings manager")
	}
	if err := mgr.BindFlag("config_file", cmd.Flags().Lookup("config-file")); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidArguments, "failed to bind --config-file")
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		mgr.SetOverride("ui.color_enabled", false)
	}
	apperrors.Debug("Using settings file: %s", mgr.SettingsPath())

	settings, err := mgr.Load()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfigCorrupt, "failed to load settings")
	}

	path := settings.ConfigFile
	if path == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return nil, apperrors.NewFileSystemError("resolve", "home directory", err)
		}
		path = filepath.Join(dir, config.DefaultConfigFileName)
	}
	apperrors.Debug("Using config file: %s", path)

	color := settings.UI.ColorEnabled && stdoutIsTerminal()

	opts := ui.Options{
		ColorEnabled:  color,
		Spinner:       settings.UI.Spinner,
		MarkdownStyle: settings.UI.MarkdownStyle,
		Width:         settings.UI.Width,
		Out:           cmd.OutOrStdout(),
		Err:           cmd.ErrOrStderr(),
	}
	var uiMgr ui.Manager
	if nonInteractive || !isInteractive() {
		uiMgr = ui.NewNonInteractiveManager(opts)
	} else {
		uiMgr = ui.NewDefaultManager(opts)
	}

	width := settings.UI.Width
	if width <= 0 && color {
		width = uiMgr.Width()
	}

	return &runtime{
		settings: settings,
		store:    config.NewStore(path, ai.NewKeyValidator(settings.LLM)),
		ui:       uiMgr,
		renderer: report.NewRenderer(color, width),
		color:    color,
	}, nil
}

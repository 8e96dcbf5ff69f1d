// Package ui provides interactive terminal UI components for jiaz.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

const (
	// DefaultMarkdownStyle is the glamour style used for AI rundowns.
	DefaultMarkdownStyle = "dark"
	// DefaultWidth is used when the terminal width cannot be detected.
	DefaultWidth = 120
)

// Spinner provides loading animation functionality.
type Spinner interface {
	Start()
	Stop()
	UpdateText(text string)
}

// Manager defines the interface for UI operations.
type Manager interface {
	ShowSpinner(text string) Spinner
	ShowError(err error)
	ShowWarning(message string)
	ShowSuccess(message string)
	ShowInfo(message string)
	PromptConfirm(message string) (bool, error)
	RenderMarkdown(markdown string) (string, error)
	Width() int
}

// Options configures a DefaultManager.
type Options struct {
	ColorEnabled  bool
	Spinner       bool
	MarkdownStyle string
	Width         int
	Out           io.Writer
	Err           io.Writer
}

// DefaultManager implements the Manager interface using charmbracelet libraries.
type DefaultManager struct {
	opts   Options
	styles *styles
}

// styles holds the lipgloss styles for UI rendering.
type styles struct {
	title      lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	errorStyle lipgloss.Style
	info       lipgloss.Style
	prompt     lipgloss.Style
	selected   lipgloss.Style
	muted      lipgloss.Style
}

// NewDefaultManager creates a new DefaultManager with the specified options.
func NewDefaultManager(opts Options) *DefaultManager {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = DefaultMarkdownStyle
	}
	return &DefaultManager{
		opts:   opts,
		styles: newStyles(opts.ColorEnabled),
	}
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &styles{
			title:      plain,
			success:    plain,
			warning:    plain,
			errorStyle: plain,
			info:       plain,
			prompt:     plain,
			selected:   plain,
			muted:      plain,
		}
	}

	return &styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
		errorStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220")),
		selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

// TerminalWidth returns the width of the terminal attached to stdout, or
// DefaultWidth when stdout is not a terminal.
func TerminalWidth() int {
	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

// Width returns the configured width, falling back to the terminal width.
func (m *DefaultManager) Width() int {
	if m.opts.Width > 0 {
		return m.opts.Width
	}
	return TerminalWidth()
}

// ShowSpinner creates and returns a spinner for loading states.
// Spinners render on stderr so that piped stdout stays clean.
func (m *DefaultManager) ShowSpinner(text string) Spinner {
	if !m.opts.Spinner {
		return &noopSpinner{}
	}
	return newBubbleSpinner(text, m.opts.Err, m.opts.ColorEnabled)
}

// ShowError displays an error message to the user.
func (m *DefaultManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(m.opts.Err, m.styles.errorStyle.Render("Error: "+err.Error()))
}

// ShowWarning displays a warning on stderr.
func (m *DefaultManager) ShowWarning(message string) {
	fmt.Fprintln(m.opts.Err, m.styles.warning.Render("Warning: "+message))
}

// ShowSuccess displays a success message to the user.
func (m *DefaultManager) ShowSuccess(message string) {
	fmt.Fprintln(m.opts.Out, m.styles.success.Render(message))
}

// ShowInfo displays an informational message.
func (m *DefaultManager) ShowInfo(message string) {
	fmt.Fprintln(m.opts.Out, m.styles.info.Render(message))
}

// RenderMarkdown renders markdown for the terminal with glamour.
// With colors disabled the text is returned unchanged.
func (m *DefaultManager) RenderMarkdown(markdown string) (string, error) {
	if !m.opts.ColorEnabled {
		return markdown, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.opts.MarkdownStyle),
		glamour.WithWordWrap(m.Width()),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// PromptConfirm prompts the user for a yes/no confirmation using Bubble Tea.
func (m *DefaultManager) PromptConfirm(message string) (bool, error) {
	model := newConfirmModel(message, m.styles)
	p := tea.NewProgram(model, tea.WithOutput(m.opts.Err))

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	result := finalModel.(confirmModel)
	return result.confirmed, nil
}

// confirmModel is the Bubble Tea model for yes/no confirmation.
type confirmModel struct {
	message   string
	styles    *styles
	cursor    int // 0 = Yes, 1 = No
	confirmed bool
	done      bool
}

// The cursor starts on No: confirmations guard overwrites.
func newConfirmModel(message string, st *styles) confirmModel {
	return confirmModel{
		message: message,
		styles:  st,
		cursor:  1,
	}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "n", "N", "esc":
			m.confirmed = false
			m.done = true
			return m, tea.Quit
		case "y", "Y":
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		case "left", "h":
			m.cursor = 0
		case "right", "l":
			m.cursor = 1
		case "tab":
			m.cursor = 1 - m.cursor
		case "enter", " ":
			m.confirmed = m.cursor == 0
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.styles.prompt.Render(m.message))
	sb.WriteString(" ")

	yesStyle := m.styles.muted
	noStyle := m.styles.muted
	if m.cursor == 0 {
		yesStyle = m.styles.selected
	} else {
		noStyle = m.styles.selected
	}

	sb.WriteString(yesStyle.Render("[Y]es"))
	sb.WriteString(" / ")
	sb.WriteString(noStyle.Render("[N]o"))

	return sb.String()
}

// bubbleSpinner implements Spinner using Bubble Tea.
type bubbleSpinner struct {
	text    string
	out     io.Writer
	program *tea.Program
	model   *spinnerModel
	done    chan struct{}
	mu      sync.Mutex
}

// spinnerModel is the Bubble Tea model for simple spinner.
type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

// spinnerTextMsg is sent to update spinner text from outside.
type spinnerTextMsg struct {
	text string
}

// spinnerQuitMsg signals the spinner to quit.
type spinnerQuitMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTextMsg:
		m.text = msg.text
		return m, nil
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.text)
}

func newBubbleSpinner(text string, out io.Writer, colorEnabled bool) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	if colorEnabled {
		s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	}

	return &bubbleSpinner{
		text:  text,
		out:   out,
		model: &spinnerModel{spinner: s, text: text},
	}
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		return
	}
	s.program = tea.NewProgram(s.model, tea.WithOutput(s.out), tea.WithInput(nil))
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(s.program, s.done)
}

func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(spinnerQuitMsg{})
	select {
	case <-s.done:
	case <-time.After(500 * time.Millisecond):
		s.program.Kill()
	}
	s.program = nil
}

func (s *bubbleSpinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text
	if s.program != nil {
		s.program.Send(spinnerTextMsg{text: text})
	}
}

// NonInteractiveManager implements Manager for pipes and the --yes flag.
// It never prompts and never animates.
type NonInteractiveManager struct {
	*DefaultManager
}

// NewNonInteractiveManager creates a new NonInteractiveManager.
func NewNonInteractiveManager(opts Options) *NonInteractiveManager {
	opts.Spinner = false
	return &NonInteractiveManager{DefaultManager: NewDefaultManager(opts)}
}

// ShowSpinner returns a no-op spinner in non-interactive mode.
func (m *NonInteractiveManager) ShowSpinner(string) Spinner {
	return &noopSpinner{}
}

// PromptConfirm always returns true in non-interactive mode.
func (m *NonInteractiveManager) PromptConfirm(string) (bool, error) {
	return true, nil
}

// noopSpinner is a no-op implementation of Spinner.
type noopSpinner struct{}

func (s *noopSpinner) Start()            {}
func (s *noopSpinner) Stop()             {}
func (s *noopSpinner) UpdateText(string) {}

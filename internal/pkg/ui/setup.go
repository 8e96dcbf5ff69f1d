package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/jiaz/jiaz/internal/pkg/config"
	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
	"github.com/jiaz/jiaz/internal/pkg/security"
)

// MaxSetupAttempts bounds how often a required or rejected value is asked for.
const MaxSetupAttempts = 3

// SetupField is one question of the init wizard.
type SetupField struct {
	Key         string
	Title       string
	Description string
	Fallback    string
	Secret      bool
	Attempt     int
}

// Prompter asks for a single value.
type Prompter interface {
	Ask(field SetupField) (string, error)
}

var fieldTitles = map[string]string{
	config.KeyServerURL:           "JIRA server URL",
	config.KeyUserToken:           "JIRA personal access token",
	config.KeyJiraProject:         "JIRA project key",
	config.KeyJiraBacklogName:     "Backlog label",
	config.KeyJiraSprintboardName: "Sprint name filter",
	config.KeyJiraSprintboardID:   "Sprint board id",
	config.KeyJiraBoardName:       "Sprint board name",
	config.KeyGeminiAPIKey:        "Gemini API key (optional)",
}

// Setup runs the interactive `config init` wizard against a block store.
type Setup struct {
	Store     *config.Store
	Validator config.KeyValidator
	Prompter  Prompter
	UI        Manager
}

// Run asks for every known key, leaving blanks to the default block, and
// stores the result under name. Required fields and Gemini keys that fail
// validation are asked for up to MaxSetupAttempts times.
func (s *Setup) Run(ctx context.Context, name string) (config.Block, error) {
	defaults, err := s.Store.Defaults()
	if err != nil {
		return nil, err
	}

	if name == "" {
		if name, err = s.chooseName(defaults); err != nil {
			return nil, err
		}
	}
	if name == config.MetaBlockName {
		return nil, apperrors.NewInvalidArgumentsError("'meta' is reserved and cannot be used as a block name")
	}
	if _, err := s.Store.GetBlock(name); err == nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidArguments, "config name '%s' already exists", name).
			WithSuggestion("Choose a different name, or change single keys with 'jiaz config set'")
	}

	s.UI.ShowInfo(fmt.Sprintf("Initializing configuration '%s'. Leave a field blank to use the default block value.", name))

	prompted := config.Block{}
	for _, key := range config.KnownKeys {
		value, err := s.ask(ctx, name, key, defaults[key])
		if err != nil {
			return nil, err
		}
		if value != "" {
			prompted[key] = value
		}
	}

	block, err := s.Store.Init(name, prompted)
	if err != nil {
		return nil, err
	}
	s.UI.ShowSuccess(fmt.Sprintf("Configuration '%s' saved to %s", name, s.Store.Path()))
	return block, nil
}

// chooseName uses the default block name for the first block and asks for a
// new name once a default block exists.
func (s *Setup) chooseName(defaults config.Block) (string, error) {
	if len(defaults) == 0 {
		return config.DefaultBlockName, nil
	}
	name, err := s.Prompter.Ask(SetupField{Key: "name", Title: "New configuration name"})
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewInvalidArgumentsError("a configuration name is required").
			WithSuggestion("Pass one with 'jiaz config init --name <name>'")
	}
	return name, nil
}

func (s *Setup) ask(ctx context.Context, name, key, fallback string) (string, error) {
	field := SetupField{
		Key:      key,
		Title:    fieldTitles[key],
		Fallback: fallback,
		Secret:   config.IsSensitive(key),
	}
	if field.Title == "" {
		field.Title = key
	}
	if fallback != "" {
		shown := fallback
		if field.Secret {
			shown = security.MaskAPIKey(fallback)
		}
		field.Description = fmt.Sprintf("default: %s", shown)
	}

	required := isRequired(key)
	for attempt := 1; attempt <= MaxSetupAttempts; attempt++ {
		field.Attempt = attempt
		value, err := s.Prompter.Ask(field)
		if err != nil {
			return "", err
		}
		value = strings.TrimSpace(value)

		switch {
		case value == "" && required && fallback == "":
			s.UI.ShowWarning(fmt.Sprintf("%s is required", key))
			if attempt == MaxSetupAttempts {
				return "", apperrors.NewMissingRequiredFieldError(name, key)
			}
			continue
		case value != "" && key == config.KeyGeminiAPIKey && s.Validator != nil:
			if err := s.Validator.ValidateKey(ctx, value); err != nil {
				s.UI.ShowWarning(fmt.Sprintf("Gemini rejected the API key: %v", err))
				if attempt == MaxSetupAttempts {
					return "", apperrors.NewInvalidAPIKeyError("gemini", err)
				}
				continue
			}
		}
		return value, nil
	}
	return "", nil
}

func isRequired(key string) bool {
	for _, k := range config.RequiredKeys {
		if k == key {
			return true
		}
	}
	return false
}

// HuhPrompter asks questions with huh inputs.
type HuhPrompter struct{}

// Ask shows one input. Secret fields are masked while typing.
func (HuhPrompter) Ask(field SetupField) (string, error) {
	var value string
	title := field.Title
	if field.Attempt > 1 {
		title = fmt.Sprintf("%s (attempt %d/%d)", title, field.Attempt, MaxSetupAttempts)
	}

	input := huh.NewInput().
		Title(title).
		Description(field.Description).
		Value(&value)
	if field.Secret {
		input = input.Password(true)
	}
	if field.Key == config.KeyServerURL {
		input = input.Placeholder("https://issues.example.com")
	}

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", err
	}
	return value, nil
}

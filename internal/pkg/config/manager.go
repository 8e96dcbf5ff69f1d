package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultDirName is the per-user directory holding jiaz files.
	DefaultDirName = ".jiaz"
	// DefaultConfigFileName is the block store file name.
	DefaultConfigFileName = "config.toml"
	// DefaultSettingsFileName is the optional runtime settings file name.
	DefaultSettingsFileName = "settings.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "JIAZ"

	ollamaDefaultPort = "11434"
)

// SettingsManager resolves runtime Settings using Viper.
// Priority: flags > env > settings file > defaults
type SettingsManager struct {
	v            *viper.Viper
	settingsPath string
}

// NewSettingsManager creates a new settings manager.
// If settingsPath is empty, it uses ~/.jiaz/settings.yaml.
func NewSettingsManager(settingsPath string) (*SettingsManager, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if settingsPath == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		settingsPath = filepath.Join(dir, DefaultSettingsFileName)
	}
	v.SetConfigFile(settingsPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults first (required for env binding to work with nested keys)
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	bindEnvVars(v)

	return &SettingsManager{
		v:            v,
		settingsPath: settingsPath,
	}, nil
}

// DefaultDir returns ~/.jiaz.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultDirName), nil
}

// bindEnvVars explicitly binds environment variables for nested keys.
// Viper's AutomaticEnv does not resolve nested keys on Unmarshal.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("config_file", "JIAZ_CONFIG_FILE")

	_ = v.BindEnv("llm.gemini_endpoint", "JIAZ_LLM_GEMINI_ENDPOINT")
	_ = v.BindEnv("llm.gemini_model", "JIAZ_LLM_GEMINI_MODEL")
	_ = v.BindEnv("llm.ollama_endpoint", "JIAZ_LLM_OLLAMA_ENDPOINT", "OLLAMA_HOST")
	_ = v.BindEnv("llm.ollama_model", "JIAZ_LLM_OLLAMA_MODEL")
	_ = v.BindEnv("llm.temperature", "JIAZ_LLM_TEMPERATURE")
	_ = v.BindEnv("llm.max_tokens", "JIAZ_LLM_MAX_TOKENS")
	_ = v.BindEnv("llm.request_timeout", "JIAZ_LLM_REQUEST_TIMEOUT")
	_ = v.BindEnv("llm.dial_timeout", "JIAZ_LLM_DIAL_TIMEOUT")
	_ = v.BindEnv("llm.validate_timeout", "JIAZ_LLM_VALIDATE_TIMEOUT")

	_ = v.BindEnv("jira.request_timeout", "JIAZ_JIRA_REQUEST_TIMEOUT")
	_ = v.BindEnv("jira.dial_timeout", "JIAZ_JIRA_DIAL_TIMEOUT")
	_ = v.BindEnv("jira.requests_per_second", "JIAZ_JIRA_REQUESTS_PER_SECOND")
	_ = v.BindEnv("jira.burst", "JIAZ_JIRA_BURST")
	_ = v.BindEnv("jira.max_results", "JIAZ_JIRA_MAX_RESULTS")
	_ = v.BindEnv("jira.stale_comment_days", "JIAZ_JIRA_STALE_COMMENT_DAYS")
	_ = v.BindEnv("jira.fields.story_points", "JIAZ_JIRA_FIELDS_STORY_POINTS")
	_ = v.BindEnv("jira.fields.original_story_points", "JIAZ_JIRA_FIELDS_ORIGINAL_STORY_POINTS")
	_ = v.BindEnv("jira.fields.work_type", "JIAZ_JIRA_FIELDS_WORK_TYPE")
	_ = v.BindEnv("jira.fields.sprints", "JIAZ_JIRA_FIELDS_SPRINTS")
	_ = v.BindEnv("jira.fields.epic_link", "JIAZ_JIRA_FIELDS_EPIC_LINK")
	_ = v.BindEnv("jira.fields.progress", "JIAZ_JIRA_FIELDS_PROGRESS")

	_ = v.BindEnv("ui.color_enabled", "JIAZ_UI_COLOR_ENABLED")
	_ = v.BindEnv("ui.spinner", "JIAZ_UI_SPINNER")
	_ = v.BindEnv("ui.markdown_style", "JIAZ_UI_MARKDOWN_STYLE")
	_ = v.BindEnv("ui.width", "JIAZ_UI_WIDTH")
}

// setDefaults sets the default settings values.
func setDefaults(v *viper.Viper) error {
	dir, err := DefaultDir()
	if err != nil {
		return err
	}
	v.SetDefault("config_file", filepath.Join(dir, DefaultConfigFileName))

	// LLM defaults
	v.SetDefault("llm.gemini_endpoint", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("llm.gemini_model", "gemini-2.5-pro")
	v.SetDefault("llm.ollama_endpoint", "http://localhost:11434")
	v.SetDefault("llm.ollama_model", "qwen3:14b")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.request_timeout", 120*time.Second)
	v.SetDefault("llm.dial_timeout", 5*time.Second)
	v.SetDefault("llm.validate_timeout", 15*time.Second)

	// JIRA defaults
	v.SetDefault("jira.request_timeout", 30*time.Second)
	v.SetDefault("jira.dial_timeout", 5*time.Second)
	v.SetDefault("jira.requests_per_second", 2.0)
	v.SetDefault("jira.burst", 2)
	v.SetDefault("jira.max_results", 1000)
	v.SetDefault("jira.stale_comment_days", 10)
	v.SetDefault("jira.fields.story_points", "customfield_12310243")
	v.SetDefault("jira.fields.original_story_points", "customfield_12314040")
	v.SetDefault("jira.fields.work_type", "customfield_12320040")
	v.SetDefault("jira.fields.sprints", "customfield_12310940")
	v.SetDefault("jira.fields.epic_link", "customfield_12311140")
	v.SetDefault("jira.fields.progress", "customfield_12317141")

	// UI defaults
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.spinner", true)
	v.SetDefault("ui.markdown_style", "dark")
	v.SetDefault("ui.width", 0)
	return nil
}

// SettingsPath returns the path of the optional settings file.
func (m *SettingsManager) SettingsPath() string {
	return m.settingsPath
}

// Load resolves the settings from file, environment, and defaults.
func (m *SettingsManager) Load() (*Settings, error) {
	// A missing settings file is normal; defaults and env still apply.
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := m.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	s.LLM.OllamaEndpoint = NormalizeOllamaEndpoint(s.LLM.OllamaEndpoint)
	return &s, nil
}

// NormalizeOllamaEndpoint turns an OLLAMA_HOST style value into a URL.
// "127.0.0.1:11434" becomes "http://127.0.0.1:11434", a bare host gets the
// default port, and the listen-all hosts 0.0.0.0 and :: become localhost.
// Values that already carry a scheme are returned trimmed.
func NormalizeOllamaEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}

	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		host, port = strings.Trim(endpoint, "[]"), ollamaDefaultPort
	}
	if port == "" {
		port = ollamaDefaultPort
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// BindFlag lets a command-line flag override a settings key when it is set.
func (m *SettingsManager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return nil
	}
	return m.v.BindPFlag(key, flag)
}

// SetOverride sets a temporary override for a settings key.
func (m *SettingsManager) SetOverride(key string, value interface{}) {
	m.v.Set(key, value)
}

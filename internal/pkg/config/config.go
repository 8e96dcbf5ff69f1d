// Package config provides the jiaz block store and runtime settings.
package config

import "time"

// Settings holds runtime tunables resolved from defaults, the optional
// settings file, JIAZ_* environment variables and flags.
// JIRA credentials are not settings; they live in config blocks.
type Settings struct {
	ConfigFile string       `mapstructure:"config_file"`
	LLM        LLMSettings  `mapstructure:"llm"`
	Jira       JiraSettings `mapstructure:"jira"`
	UI         UISettings   `mapstructure:"ui"`
}

// LLMSettings contains language model provider settings.
type LLMSettings struct {
	GeminiEndpoint  string        `mapstructure:"gemini_endpoint"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	OllamaEndpoint  string        `mapstructure:"ollama_endpoint"`
	OllamaModel     string        `mapstructure:"ollama_model"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ValidateTimeout time.Duration `mapstructure:"validate_timeout"`
}

// JiraSettings contains JIRA client settings.
type JiraSettings struct {
	RequestTimeout    time.Duration  `mapstructure:"request_timeout"`
	DialTimeout       time.Duration  `mapstructure:"dial_timeout"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	Burst             int            `mapstructure:"burst"`
	MaxResults        int            `mapstructure:"max_results"`
	StaleCommentDays  int            `mapstructure:"stale_comment_days"`
	Fields            FieldsSettings `mapstructure:"fields"`
}

// FieldsSettings maps logical issue attributes to JIRA custom field ids.
type FieldsSettings struct {
	StoryPoints         string `mapstructure:"story_points"`
	OriginalStoryPoints string `mapstructure:"original_story_points"`
	WorkType            string `mapstructure:"work_type"`
	Sprints             string `mapstructure:"sprints"`
	EpicLink            string `mapstructure:"epic_link"`
	Progress            string `mapstructure:"progress"`
}

// UISettings contains UI-related settings.
type UISettings struct {
	ColorEnabled  bool   `mapstructure:"color_enabled"`
	Spinner       bool   `mapstructure:"spinner"`
	MarkdownStyle string `mapstructure:"markdown_style"`
	Width         int    `mapstructure:"width"`
}

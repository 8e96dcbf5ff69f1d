// Package errors provides error types, exit code mapping and logging for jiaz.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jiaz/jiaz/internal/pkg/security"
)

// ErrorCode represents the category of an error.
type ErrorCode int

const (
	// User errors (Exit Code 1)
	ErrConfigMissing ErrorCode = iota + 100
	ErrBlockNotFound
	ErrKeyNotFound
	ErrNoActiveConfig
	ErrMissingRequiredField
	ErrInvalidArguments
	ErrInvalidAPIKey
	ErrNoActiveSprint

	// System errors (Exit Code 2)
	ErrConfigCorrupt ErrorCode = iota + 200
	ErrFileSystemError

	// External errors (Exit Code 3)
	ErrLLMUnavailable ErrorCode = iota + 300
	ErrJiraRequestFailed
	ErrAIProviderFailed
	ErrNetworkError
	ErrTimeout
	ErrAuthenticationFailed
)

// ExitCode returns the appropriate exit code for an error code.
func (c ErrorCode) ExitCode() int {
	switch {
	case c >= 100 && c < 200:
		return 1 // User errors
	case c >= 200 && c < 300:
		return 2 // System errors
	case c >= 300:
		return 3 // External errors
	default:
		return 1
	}
}

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrConfigMissing:
		return "ConfigMissing"
	case ErrBlockNotFound:
		return "BlockNotFound"
	case ErrKeyNotFound:
		return "KeyNotFound"
	case ErrNoActiveConfig:
		return "NoActiveConfig"
	case ErrMissingRequiredField:
		return "MissingRequiredField"
	case ErrInvalidArguments:
		return "InvalidArguments"
	case ErrInvalidAPIKey:
		return "InvalidApiKey"
	case ErrNoActiveSprint:
		return "NoActiveSprint"
	case ErrConfigCorrupt:
		return "ConfigCorrupt"
	case ErrFileSystemError:
		return "FileSystemError"
	case ErrLLMUnavailable:
		return "LLMUnavailable"
	case ErrJiraRequestFailed:
		return "JiraRequestFailed"
	case ErrAIProviderFailed:
		return "AIProviderFailed"
	case ErrNetworkError:
		return "NetworkError"
	case ErrTimeout:
		return "Timeout"
	case ErrAuthenticationFailed:
		return "AuthenticationFailed"
	default:
		return "Unknown"
	}
}

// AppError represents an application error with context.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Context    map[string]interface{}
	Suggestion string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with context.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether the outermost AppError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// GetExitCode returns the appropriate exit code for an error.
func GetExitCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code.ExitCode()
	}
	return 1 // Default to user error
}

// Common error constructors with suggestions

// NewConfigMissingError creates an error for an absent configuration file.
func NewConfigMissingError(path string) *AppError {
	return &AppError{
		Code:       ErrConfigMissing,
		Message:    fmt.Sprintf("configuration file not found at %s", path),
		Suggestion: "Run 'jiaz config init' to create a configuration",
	}
}

// NewConfigCorruptError creates an error for an unparseable configuration file.
func NewConfigCorruptError(path string, cause error) *AppError {
	return &AppError{
		Code:       ErrConfigCorrupt,
		Message:    fmt.Sprintf("configuration file %s could not be parsed", path),
		Cause:      cause,
		Suggestion: "Fix or remove the file, then run 'jiaz config init'",
	}
}

// NewBlockNotFoundError creates an error for an unknown configuration block.
func NewBlockNotFoundError(name string) *AppError {
	return &AppError{
		Code:       ErrBlockNotFound,
		Message:    fmt.Sprintf("configuration block '%s' not found", name),
		Context:    map[string]interface{}{"block": name},
		Suggestion: "Run 'jiaz config list' to see the available blocks",
	}
}

// NewKeyNotFoundError creates an error for a key absent from a block.
func NewKeyNotFoundError(block, key string) *AppError {
	return &AppError{
		Code:    ErrKeyNotFound,
		Message: fmt.Sprintf("key '%s' not found in block '%s'", key, block),
		Context: map[string]interface{}{"block": block, "key": key},
	}
}

// NewNoActiveConfigError creates an error for a missing or dangling active block.
func NewNoActiveConfigError() *AppError {
	return &AppError{
		Code:       ErrNoActiveConfig,
		Message:    "no active configuration block",
		Suggestion: "Run 'jiaz config use <name>' or pass --config <name>",
	}
}

// NewMissingRequiredFieldError creates an error for a blank required field.
func NewMissingRequiredFieldError(block, key string) *AppError {
	if block == "" {
		return &AppError{
			Code:       ErrMissingRequiredField,
			Message:    fmt.Sprintf("required field '%s' is empty", key),
			Context:    map[string]interface{}{"key": key},
			Suggestion: fmt.Sprintf("Set it with 'jiaz config set %s <value>'", key),
		}
	}
	return &AppError{
		Code:       ErrMissingRequiredField,
		Message:    fmt.Sprintf("required field '%s' is empty in block '%s'", key, block),
		Context:    map[string]interface{}{"block": block, "key": key},
		Suggestion: fmt.Sprintf("Set it with 'jiaz config set %s <value> --name %s'", key, block),
	}
}

// NewInvalidArgumentsError creates an error for rejected CLI arguments.
func NewInvalidArgumentsError(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidArguments,
		Message: message,
	}
}

// NewInvalidAPIKeyError creates an error for a rejected LLM API key.
func NewInvalidAPIKeyError(provider string, cause error) *AppError {
	return &AppError{
		Code:       ErrInvalidAPIKey,
		Message:    fmt.Sprintf("%s rejected the API key", provider),
		Cause:      cause,
		Suggestion: "Check the key and try again",
	}
}

// NewFileSystemError creates an error for local file operations.
func NewFileSystemError(op, path string, cause error) *AppError {
	return &AppError{
		Code:    ErrFileSystemError,
		Message: fmt.Sprintf("failed to %s %s", op, path),
		Cause:   cause,
	}
}

// NewNetworkError creates an error for network failures.
func NewNetworkError(err error) *AppError {
	return &AppError{
		Code:       ErrNetworkError,
		Message:    "network error occurred",
		Cause:      err,
		Suggestion: "Please check your network connection and try again",
	}
}

// NewTimeoutError creates an error for timeouts.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Code:       ErrTimeout,
		Message:    "request timed out",
		Cause:      err,
		Suggestion: "Please check your network connection or try again later",
	}
}

// NewAuthenticationError creates an error for authentication failures.
func NewAuthenticationError(provider string) *AppError {
	return &AppError{
		Code:       ErrAuthenticationFailed,
		Message:    fmt.Sprintf("authentication failed with %s", provider),
		Suggestion: "Please check your credentials are valid and have not expired",
	}
}

// NewAIProviderError creates an error for AI provider failures.
func NewAIProviderError(provider string, err error) *AppError {
	return &AppError{
		Code:    ErrAIProviderFailed,
		Message: fmt.Sprintf("%s provider error", provider),
		Cause:   err,
	}
}

// NewJiraError creates an error for a failed JIRA request.
func NewJiraError(endpoint string, status int, err error) *AppError {
	appErr := &AppError{
		Code:    ErrJiraRequestFailed,
		Message: fmt.Sprintf("JIRA request to %s failed", endpoint),
		Cause:   err,
		Context: map[string]interface{}{"endpoint": endpoint},
	}
	if status > 0 {
		appErr.Message = fmt.Sprintf("JIRA request to %s failed with status %d", endpoint, status)
		appErr.Context["status"] = status
	}
	switch status {
	case 401, 403:
		appErr.Suggestion = "Check that user_token is a valid personal access token for server_url"
	case 404:
		appErr.Suggestion = "Check the issue key, project and board settings"
	}
	return appErr
}

// FormatError formats an error for user display.
// API keys and other sensitive data are automatically masked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(appErr.Message))

		if appErr.Cause != nil {
			sb.WriteString("\n  Cause: ")
			sb.WriteString(SanitizeErrorMessage(appErr.Cause.Error()))
		}

		if appErr.Suggestion != "" {
			sb.WriteString("\n  Suggestion: ")
			sb.WriteString(appErr.Suggestion)
		}
	} else {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(err.Error()))
	}

	return sb.String()
}

// FormatErrorVerbose formats an error with full details for verbose mode.
// API keys and other sensitive data are automatically masked.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString(fmt.Sprintf("Error [%s]: %s\n", appErr.Code.String(), SanitizeErrorMessage(appErr.Message)))

		if appErr.Cause != nil {
			sb.WriteString(fmt.Sprintf("  Cause: %v\n", SanitizeErrorMessage(appErr.Cause.Error())))
			sb.WriteString("  Error chain:\n")
			printErrorChain(&sb, appErr.Cause, 2)
		}

		if len(appErr.Context) > 0 {
			sb.WriteString("  Context:\n")
			keys := make([]string, 0, len(appErr.Context))
			for k := range appErr.Context {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				sb.WriteString(fmt.Sprintf("    %s: %v\n", k, SanitizeErrorMessage(fmt.Sprintf("%v", appErr.Context[k]))))
			}
		}

		if appErr.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", appErr.Suggestion))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %v\n", SanitizeErrorMessage(err.Error())))
		sb.WriteString("  Error chain:\n")
		printErrorChain(&sb, err, 2)
	}

	return sb.String()
}

// printErrorChain prints the error chain with indentation.
func printErrorChain(sb *strings.Builder, err error, indent int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)
	errMsg := SanitizeErrorMessage(err.Error())
	sb.WriteString(fmt.Sprintf("%s- %T: %v\n", prefix, err, errMsg))

	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		printErrorChain(sb, unwrapped, indent+1)
	}
}

// SanitizeErrorMessage masks any API keys or tokens in error messages.
func SanitizeErrorMessage(msg string) string {
	return security.SanitizeForLogging(msg)
}

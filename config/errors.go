package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured marks an optional feature, such as the database, that was left unset.
var ErrNotConfigured = errors.New("not configured")

// ErrorCategory classifies a configuration problem.
type ErrorCategory string

const (
	CategoryMissing       ErrorCategory = "missing"
	CategoryInvalid       ErrorCategory = "invalid"
	CategoryNotConfigured ErrorCategory = "not_configured"
)

// ConfigError names the offending key and how to fix it through the YAML file or the environment.
//
//nolint:revive // ConfigError reads better than config.Error at call sites
type ConfigError struct {
	Category ErrorCategory
	Field    string // koanf path, e.g. "query.mode"
	Message  string
	Action   string
}

// Error formats the error as "config <category> <field>: <message> (<action>)".
func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("config ")
	sb.WriteString(string(e.Category))
	if e.Field != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Action != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Action)
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap exposes ErrNotConfigured for not-configured errors.
func (e *ConfigError) Unwrap() error {
	if e.Category == CategoryNotConfigured {
		return ErrNotConfigured
	}
	return nil
}

// EnvVar returns the environment variable that overrides a koanf path: query.maxlimit -> QUERY_MAXLIMIT.
func EnvVar(field string) string {
	return strings.ToUpper(strings.ReplaceAll(field, ".", "_"))
}

func fixHint(field string) string {
	return fmt.Sprintf("set %s or add %s to %s", EnvVar(field), field, DefaultConfigFile)
}

// NewMissingFieldError reports a required key with no value.
func NewMissingFieldError(field string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    field,
		Message:  "required",
		Action:   fixHint(field),
	}
}

// NewUnsupportedValueError reports a value outside a closed set such as dialects or rendering modes.
func NewUnsupportedValueError(field, value string, supported []string) *ConfigError {
	return &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  fmt.Sprintf("unsupported value %q", value),
		Action:   "must be one of: " + strings.Join(supported, ", "),
	}
}

// NewRangeError reports a value of the right type but outside its allowed range.
func NewRangeError(field, message string) *ConfigError {
	return &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  message,
	}
}

// NewNotConfiguredError reports an optional feature that is switched off because field is empty.
func NewNotConfiguredError(field string) *ConfigError {
	return &ConfigError{
		Category: CategoryNotConfigured,
		Field:    field,
		Message:  "not set",
		Action:   "to enable: " + fixHint(field),
	}
}

// IsNotConfigured reports whether err means an optional feature is switched off.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// env_config.go: environment variable expansion for configuration values
//
// Supports ${VAR} and ${VAR:-default} placeholders, with an optional prefix
// tried before the bare name, so a log path such as
// "${EVENTS_HANDLER_LOG_DIR:-./var/log}/events.log" resolves per deployment.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// EnvLogPath overrides the persistent log location when set.
const EnvLogPath = "EVENTS_HANDLER_LOG"

// maxEnvValueLength caps expanded values.
const maxEnvValueLength = 4096

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// EnvConfigOptions configures environment variable processing behavior.
//
// Example usage:
//
//	options := EnvConfigOptions{
//	    Prefix:         "EVENTS_HANDLER_",
//	    FailOnMissing:  false,
//	    ValidateValues: true,
//	    AllowOverrides: true,
//	}
type EnvConfigOptions struct {
	// Prefix for environment variables (e.g., "EVENTS_HANDLER_")
	Prefix string `json:"prefix" yaml:"prefix"`

	// Whether to fail when required environment variables are missing
	FailOnMissing bool `json:"fail_on_missing" yaml:"fail_on_missing"`

	// Whether to validate environment variable values
	ValidateValues bool `json:"validate_values" yaml:"validate_values"`

	// Whether EVENTS_HANDLER_LOG may override the configured log path
	AllowOverrides bool `json:"allow_overrides" yaml:"allow_overrides"`

	// Default values for undefined environment variables
	Defaults map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// DefaultEnvConfigOptions returns the defaults used by DefaultConfig.
func DefaultEnvConfigOptions() EnvConfigOptions {
	return EnvConfigOptions{
		Prefix:         "EVENTS_HANDLER_",
		FailOnMissing:  false,
		ValidateValues: true,
		AllowOverrides: true,
		Defaults:       make(map[string]string),
	}
}

// ExpandEnvironmentVariables expands ${VAR} syntax in input.
//
// Variable resolution priority:
//  1. Environment variable with the configured prefix
//  2. Environment variable without prefix
//  3. Inline default value (from ${VAR:-default} syntax)
//  4. Configured default value
//  5. Empty string, or an error if FailOnMissing is set
func ExpandEnvironmentVariables(input string, options EnvConfigOptions) (string, error) {
	if input == "" {
		return input, nil
	}

	var firstErr error
	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		submatches := variablePattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		inlineDefault := ""
		if len(submatches) >= 4 {
			inlineDefault = submatches[3]
		}

		expanded, err := expandSingleEnvironmentVariable(submatches[1], inlineDefault, options)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return expanded
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func expandSingleEnvironmentVariable(varName, inlineDefault string, options EnvConfigOptions) (string, error) {
	prefixedName := options.Prefix + varName
	if options.Prefix != "" {
		if value := os.Getenv(prefixedName); value != "" {
			return validateAndSanitizeValue(value, options)
		}
	}

	if value := os.Getenv(varName); value != "" {
		return validateAndSanitizeValue(value, options)
	}

	if inlineDefault != "" {
		return validateAndSanitizeValue(inlineDefault, options)
	}

	if value, exists := options.Defaults[varName]; exists {
		return validateAndSanitizeValue(value, options)
	}

	if options.FailOnMissing {
		return "", NewConfigValidationError(fmt.Sprintf("required environment variable not found: %s (also tried %s)", varName, prefixedName), nil)
	}
	return "", nil
}

func validateAndSanitizeValue(value string, options EnvConfigOptions) (string, error) {
	if !options.ValidateValues {
		return value, nil
	}

	if strings.Contains(value, "\x00") {
		return "", NewConfigValidationError("environment variable value contains null byte", nil)
	}

	if len(value) > maxEnvValueLength {
		return "", NewConfigValidationError(fmt.Sprintf("environment variable value too long: %d bytes (max %d)", len(value), maxEnvValueLength), nil)
	}

	for i, r := range value {
		if r < 32 && r != '\t' {
			return "", NewConfigValidationError(fmt.Sprintf("environment variable contains control character at position %d", i), nil)
		}
	}
	return value, nil
}

// ProcessConfigurationWithEnv expands placeholders in the string fields of
// config and applies the EVENTS_HANDLER_LOG override.
func ProcessConfigurationWithEnv(config *Config, options EnvConfigOptions) error {
	if config == nil {
		return NewConfigValidationError("configuration cannot be nil", nil)
	}

	if options.AllowOverrides {
		if value := os.Getenv(EnvLogPath); value != "" {
			config.LogPath = value
		}
	}

	expanded, err := ExpandEnvironmentVariables(config.LogPath, options)
	if err != nil {
		return NewConfigValidationError("failed to expand log path", err)
	}
	config.LogPath = expanded
	return nil
}

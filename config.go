// config.go: plugin configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"strings"
)

// DefaultLogPath is where the persistent log goes unless the root package,
// the configuration or EVENTS_HANDLER_LOG say otherwise.
const DefaultLogPath = "./composer-events.log"

// Config holds the plugin settings.
//
// The log path is resolved at activation with the following precedence,
// highest first: EVENTS_HANDLER_LOG, the root package's composer-events-log
// extra, LogPath, DefaultLogPath. ${VAR} placeholders are then expanded.
// DisableEnvExpansion turns off both the environment override and expansion.
type Config struct {
	// LogPath is the persistent log location
	LogPath string `json:"log_path" yaml:"log_path"`

	// DisableEnvExpansion keeps ${VAR} placeholders in LogPath verbatim
	DisableEnvExpansion bool `json:"disable_env_expansion" yaml:"disable_env_expansion"`

	// Env configures placeholder expansion and the environment override
	Env EnvConfigOptions `json:"env" yaml:"env"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		LogPath: DefaultLogPath,
		Env:     DefaultEnvConfigOptions(),
	}
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.LogPath) == "" {
		c.LogPath = DefaultLogPath
	}
	if c.Env.Prefix == "" {
		c.Env.Prefix = DefaultEnvConfigOptions().Prefix
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LogPath) == "" {
		return NewConfigValidationError("log_path cannot be empty", nil)
	}
	if strings.ContainsRune(c.LogPath, 0) {
		return NewConfigValidationError("log_path contains null byte", nil)
	}
	if strings.HasSuffix(c.LogPath, "/") {
		return NewConfigValidationError("log_path must name a file, not a directory", nil)
	}
	return nil
}

// resolve returns a copy of c with the root package override and the
// environment applied, validated.
func (c Config) resolve(root Package) (Config, error) {
	resolved := c
	resolved.ApplyDefaults()
	if override := logPathOverride(root); override != "" {
		resolved.LogPath = override
	}

	if !resolved.DisableEnvExpansion {
		if err := ProcessConfigurationWithEnv(&resolved, resolved.Env); err != nil {
			return Config{}, err
		}
	}

	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

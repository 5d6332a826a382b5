// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for keypipe.
//
// Configuration is loaded from a single YAML file specified by:
//   - KEYPIPE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There is no automatic discovery. A missing config file is not an
// error when neither source names one: the built-in defaults preserve
// the original tool's fixed paths, so the common case needs no file at
// all. On top of the file, the KEYPIPE_PIPE and KEYPIPE_OUTPUT
// environment variables override individual paths, and command-line
// flags override everything.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Default paths, matching the original tool's fixed well-known
// temporary locations.
const (
	// DefaultPipePath is where the named pipe lives unless overridden.
	DefaultPipePath = "/tmp/keypipe"

	// DefaultOutputPath is where relayed characters are appended
	// unless overridden.
	DefaultOutputPath = "/tmp/keypipe.log"
)

// Config holds the two paths keypipe operates on.
type Config struct {
	// PipePath is the location of the named pipe the listener owns.
	PipePath string `yaml:"pipe_path"`

	// OutputPath is the destination of the append-only character log.
	OutputPath string `yaml:"output_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PipePath:   DefaultPipePath,
		OutputPath: DefaultOutputPath,
	}
}

// Load resolves configuration from defaults, an optional config file,
// and the environment, in that order. The explicitPath (from a
// --config flag) wins over the KEYPIPE_CONFIG environment variable;
// when a path is named through either, the file must exist.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	path := explicitPath
	if path == "" {
		path = os.Getenv("KEYPIPE_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvironment()
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges a single configuration file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnvironment applies per-path environment overrides.
func (c *Config) applyEnvironment() {
	if pipePath := os.Getenv("KEYPIPE_PIPE"); pipePath != "" {
		c.PipePath = pipePath
	}
	if outputPath := os.Getenv("KEYPIPE_OUTPUT"); outputPath != "" {
		c.OutputPath = outputPath
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths
// for portability (a config file can say ${TMPDIR:-/tmp}/keypipe).
func (c *Config) expandVariables() {
	c.PipePath = expandVars(c.PipePath)
	c.OutputPath = expandVars(c.OutputPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.PipePath == "" {
		errs = append(errs, fmt.Errorf("pipe_path is required"))
	}
	if c.OutputPath == "" {
		errs = append(errs, fmt.Errorf("output_path is required"))
	}
	if c.PipePath != "" && c.PipePath == c.OutputPath {
		errs = append(errs, fmt.Errorf("pipe_path and output_path must differ (both are %s)", c.PipePath))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

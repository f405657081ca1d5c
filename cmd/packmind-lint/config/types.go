// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"path/filepath"
	"time"

	"github.com/PackmindHub/packmind-linter/services/linter/telemetry"
)

type LinterConfig struct {
	// Store: where imported detection programs live
	Store StoreConfig `yaml:"store"`

	// Log: level and handler for the CLI and server
	Log LogConfig `yaml:"log"`

	// Lint: local lint run tuning
	Lint LintConfig `yaml:"lint"`

	// Server: HTTP API settings for `packmind-lint serve`
	Server ServerConfig `yaml:"server"`

	// Telemetry: OpenTelemetry exporters
	Telemetry telemetry.Config `yaml:"telemetry"`
}

type StoreConfig struct {
	Path string `yaml:"path"` // e.g. ~/.packmind/programs
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type LintConfig struct {
	Concurrency    int           `yaml:"concurrency"` // 0 means one worker per CPU
	ProgramTimeout time.Duration `yaml:"program_timeout"`
	GitTimeout     time.Duration `yaml:"git_timeout"`
	WatchDebounce  time.Duration `yaml:"watch_debounce"`
}

type ServerConfig struct {
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second on /execute, 0 disables
	RateBurst int     `yaml:"rate_burst"`
}

// DefaultConfig returns the configuration written on first run. home is
// the directory holding linter.yaml.
func DefaultConfig(home string) LinterConfig {
	return LinterConfig{
		Store: StoreConfig{
			Path: filepath.Join(home, "programs"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Lint: LintConfig{
			ProgramTimeout: 5 * time.Second,
			GitTimeout:     30 * time.Second,
			WatchDebounce:  300 * time.Millisecond,
		},
		Server: ServerConfig{
			Port:      8090,
			RateLimit: 50,
			RateBurst: 100,
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

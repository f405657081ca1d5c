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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file inside the packmind home directory.
	FileName = "linter.yaml"

	// EnvHome overrides the packmind home directory (default ~/.packmind).
	EnvHome = "PACKMIND_LINTER_HOME"

	EnvStorePath = "PACKMIND_LINTER_STORE_PATH"
	EnvLogLevel  = "PACKMIND_LINTER_LOG_LEVEL"
	EnvLogFormat = "PACKMIND_LINTER_LOG_FORMAT"
	EnvPort      = "PACKMIND_LINTER_PORT"
)

// DefaultPath returns the config path, honouring PACKMIND_LINTER_HOME.
func DefaultPath() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".packmind", FileName), nil
}

// Load reads the config at path, creating it with defaults on first run.
//
// Description:
//
//	Missing keys keep their default values. PACKMIND_LINTER_* environment
//	variables are applied last. The first-run notice goes to notice, which
//	may be nil.
func Load(path string, notice io.Writer) (LinterConfig, error) {
	cfg := DefaultConfig(filepath.Dir(path))

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if notice != nil {
			fmt.Fprintf(notice, " First run detected, creating the config at %s\n", path)
		}
		if err := createDefault(path, cfg); err != nil {
			return LinterConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return LinterConfig{}, fmt.Errorf("failed to read the config file %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return LinterConfig{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return LinterConfig{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *LinterConfig) error {
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s %q", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	return nil
}

func createDefault(path string, cfg LinterConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

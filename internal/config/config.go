// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads application configuration.
//
// Configuration comes from ~/.omnimind/config.toml with environment
// variable overrides on top, and built-in defaults underneath. A missing
// config file is not an error; the defaults plus GEMINI_API_KEY are
// enough to run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete application configuration.
type Config struct {
	// API contains Gemini API settings.
	API APIConfig `toml:"api"`

	// Generation contains sampling parameters for chat turns.
	Generation GenerationConfig `toml:"generation"`

	// Storage contains persistence settings.
	Storage StorageConfig `toml:"storage"`

	// UI contains interface settings.
	UI UIConfig `toml:"ui"`
}

// APIConfig contains Gemini API settings.
type APIConfig struct {
	// Key is the Gemini API key. The GEMINI_API_KEY environment variable
	// takes precedence.
	Key string `toml:"key"`
	// ChatModel handles conversation turns.
	ChatModel string `toml:"chat_model"`
	// TitleModel summarizes first messages into session titles.
	TitleModel string `toml:"title_model"`
	// RequestsPerMinute caps outbound API calls. 0 disables throttling.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// GenerationConfig contains sampling parameters.
type GenerationConfig struct {
	Temperature float32 `toml:"temperature"`
	TopP        float32 `toml:"top_p"`
	TopK        float32 `toml:"top_k"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// DataDir holds sessions.json and usage.db. Default: ~/.omnimind
	DataDir string `toml:"data_dir"`
}

// UIConfig contains interface settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme"`
	// ShowSidebar shows the session list on startup.
	ShowSidebar bool `toml:"show_sidebar"`
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			ChatModel:         "gemini-3-pro-preview",
			TitleModel:        "gemini-3-flash-preview",
			RequestsPerMinute: 30,
		},
		Generation: GenerationConfig{
			Temperature: 0.7,
			TopP:        0.95,
			TopK:        40,
		},
		UI: UIConfig{
			Theme:       "dark",
			ShowSidebar: true,
		},
	}
}

// Dir returns the configuration directory, ~/.omnimind.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".omnimind"), nil
}

// Path returns the config file location, ~/.omnimind/config.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default path. A missing file yields
// defaults; a malformed file is an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path, then applies
// environment overrides and defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	return cfg, nil
}

// ApplyEnvOverrides lets environment variables win over file settings.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.API.Key = key
	}
	if m := os.Getenv("OMNIMIND_CHAT_MODEL"); m != "" {
		c.API.ChatModel = m
	}
	if m := os.Getenv("OMNIMIND_TITLE_MODEL"); m != "" {
		c.API.TitleModel = m
	}
	if dir := os.Getenv("OMNIMIND_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if rpm := os.Getenv("OMNIMIND_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil && n >= 0 {
			c.API.RequestsPerMinute = n
		}
	}
}

// SetDefaults fills in anything zeroed out by a sparse config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.ChatModel == "" {
		c.API.ChatModel = d.API.ChatModel
	}
	if c.API.TitleModel == "" {
		c.API.TitleModel = d.API.TitleModel
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = d.Generation.Temperature
	}
	if c.Generation.TopP == 0 {
		c.Generation.TopP = d.Generation.TopP
	}
	if c.Generation.TopK == 0 {
		c.Generation.TopK = d.Generation.TopK
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Storage.DataDir == "" {
		if dir, err := Dir(); err == nil {
			c.Storage.DataDir = dir
		}
	}
}

// Save writes the configuration to the default path with owner-only
// permissions; the API key may be in there.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# omnimind configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

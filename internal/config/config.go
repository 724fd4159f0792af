// Package config loads Taskgate settings from TOML files. Workspace
// settings (.taskgate/config.toml) override user settings
// (~/.config/taskgate/config.toml), which override the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the per-workspace settings file, relative to the
// workspace root.
const ConfigFileName = ".taskgate/config.toml"

// Settings is the full Taskgate configuration.
type Settings struct {
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `toml:"log_level"`

	// Tasks configures task discovery and execution.
	Tasks TaskSettings `toml:"tasks"`
}

// TaskSettings configures the task subsystem.
type TaskSettings struct {
	// Shell is the shell used for shell tasks.
	Shell string `toml:"shell"`

	// ShellArgs are the arguments passed to the shell before the
	// command line.
	ShellArgs []string `toml:"shell_args"`

	// MaxConcurrent limits concurrent task executions.
	MaxConcurrent int `toml:"max_concurrent"`

	// Env are environment variables added to every task.
	Env map[string]string `toml:"env"`
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{
		LogLevel: "info",
		Tasks: TaskSettings{
			MaxConcurrent: 4,
		},
	}
}

// Load reads settings for a workspace, layering the workspace file over
// the user file over the defaults. Missing files are not errors.
func Load(workspaceRoot string) (*Settings, error) {
	settings := Default()

	if userPath, err := UserConfigPath(); err == nil {
		if err := loadInto(settings, userPath); err != nil {
			return nil, err
		}
	}

	if workspaceRoot != "" {
		if err := loadInto(settings, filepath.Join(workspaceRoot, ConfigFileName)); err != nil {
			return nil, err
		}
	}

	return settings, nil
}

// LoadFile reads settings from a single file over the defaults.
func LoadFile(path string) (*Settings, error) {
	settings := Default()
	if err := loadInto(settings, path); err != nil {
		return nil, err
	}
	return settings, nil
}

// UserConfigPath returns the user-level settings file path.
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskgate", "config.toml"), nil
}

// loadInto unmarshals a TOML file over existing settings. A missing
// file leaves the settings untouched.
func loadInto(settings *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings for invalid values.
func (s *Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", s.LogLevel)
	}
	if s.Tasks.MaxConcurrent < 0 {
		return fmt.Errorf("tasks.max_concurrent must not be negative")
	}
	return nil
}

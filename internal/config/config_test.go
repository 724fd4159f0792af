package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	settings := Default()

	if settings.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", settings.LogLevel)
	}
	if settings.Tasks.MaxConcurrent != 4 {
		t.Errorf("Tasks.MaxConcurrent = %d, want 4", settings.Tasks.MaxConcurrent)
	}
	if err := settings.Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestLoadWorkspaceFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".taskgate")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	content := `
log_level = "debug"

[tasks]
shell = "/bin/bash"
shell_args = ["-lc"]
max_concurrent = 2

[tasks.env]
CI = "true"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", settings.LogLevel)
	}
	if settings.Tasks.Shell != "/bin/bash" {
		t.Errorf("Tasks.Shell = %q, want /bin/bash", settings.Tasks.Shell)
	}
	if len(settings.Tasks.ShellArgs) != 1 || settings.Tasks.ShellArgs[0] != "-lc" {
		t.Errorf("Tasks.ShellArgs = %v, want [-lc]", settings.Tasks.ShellArgs)
	}
	if settings.Tasks.MaxConcurrent != 2 {
		t.Errorf("Tasks.MaxConcurrent = %d, want 2", settings.Tasks.MaxConcurrent)
	}
	if settings.Tasks.Env["CI"] != "true" {
		t.Errorf("Tasks.Env = %v, want CI=true", settings.Tasks.Env)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", settings.LogLevel)
	}
}

func TestLoadFilePartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = "warn"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if settings.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", settings.LogLevel)
	}
	// Unset sections keep their defaults.
	if settings.Tasks.MaxConcurrent != 4 {
		t.Errorf("Tasks.MaxConcurrent = %d, want default 4", settings.Tasks.MaxConcurrent)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = [broken`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() on malformed TOML returned nil error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Settings) {},
		},
		{
			name:    "bad log level",
			mutate:  func(s *Settings) { s.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name:    "negative concurrency",
			mutate:  func(s *Settings) { s.Tasks.MaxConcurrent = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := Default()
			tt.mutate(settings)
			err := settings.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

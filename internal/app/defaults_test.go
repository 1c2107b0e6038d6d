package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("CLIPSTACK_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("CLIPSTACK_HOME", "/custom/clipstack")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths() error = %v", err)
		}

		if paths.ConfigPath != "/custom/config.toml" {
			t.Errorf("ConfigPath = %q, want %q", paths.ConfigPath, "/custom/config.toml")
		}
		if paths.BaseDir != "/custom/clipstack" {
			t.Errorf("BaseDir = %q, want %q", paths.BaseDir, "/custom/clipstack")
		}
		if paths.LogDir != "/custom/clipstack/log" {
			t.Errorf("LogDir = %q, want %q", paths.LogDir, "/custom/clipstack/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("CLIPSTACK_CONFIG_PATH", "")
		t.Setenv("CLIPSTACK_HOME", "")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "clipstack.toml")
		if paths.ConfigPath != wantConfig {
			t.Errorf("ConfigPath = %q, want %q", paths.ConfigPath, wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "clipstack")
		if paths.BaseDir != wantBase {
			t.Errorf("BaseDir = %q, want %q", paths.BaseDir, wantBase)
		}
		if paths.LogDir != filepath.Join(wantBase, "log") {
			t.Errorf("LogDir = %q, want %q", paths.LogDir, filepath.Join(wantBase, "log"))
		}
	})
}

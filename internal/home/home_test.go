package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-regdesk")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-regdesk" {
			t.Errorf("expected path /tmp/test-regdesk, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-regdesk")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-regdesk/config.yaml"},
		{"EnvPath", dir.EnvPath(), "/tmp/test-regdesk/.env"},
		{"ExportsDir", dir.ExportsDir(), "/tmp/test-regdesk/exports"},
		{"ExportPath", dir.ExportPath("report.pdf"), "/tmp/test-regdesk/exports/report.pdf"},
		{"ExportPath strips directories", dir.ExportPath("../../etc/report.pdf"), "/tmp/test-regdesk/exports/report.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	regdeskDir := filepath.Join(t.TempDir(), "regdesk-test")

	dir, err := New(regdeskDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Fatal("directory should not exist yet")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	if !dir.Exists() {
		t.Error("home directory should exist")
	}
	if _, err := os.Stat(dir.ExportsDir()); err != nil {
		t.Errorf("exports directory should exist: %v", err)
	}
	if dir.ConfigExists() {
		t.Error("config should not exist")
	}
}

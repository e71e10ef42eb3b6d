package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBackupFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dichotomy.yaml")

	t.Run("no config exists", func(t *testing.T) {
		backupPath, err := BackupFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if backupPath != "" {
			t.Errorf("expected empty backup path for non-existent config, got %s", backupPath)
		}
	})

	t.Run("backup existing config", func(t *testing.T) {
		testContent := "version: 1\nsearch:\n  precision: 5\n"
		if err := os.WriteFile(configPath, []byte(testContent), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		backupPath, err := BackupFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(backupPath, configPath+BackupSuffix+".") {
			t.Errorf("unexpected backup name: %s", backupPath)
		}

		backupContent, err := os.ReadFile(backupPath)
		if err != nil {
			t.Fatalf("failed to read backup: %v", err)
		}
		if string(backupContent) != testContent {
			t.Errorf("backup content mismatch:\ngot: %s\nwant: %s", backupContent, testContent)
		}
	})
}

func TestListBackups(t *testing.T) {
	configDir := t.TempDir()
	configPath := filepath.Join(configDir, "dichotomy.yaml")

	t.Run("no backups exist", func(t *testing.T) {
		backups, err := ListBackups(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(backups) != 0 {
			t.Errorf("expected 0 backups, got %d", len(backups))
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		backups, err := ListBackups(filepath.Join(configDir, "absent", "dichotomy.yaml"))
		if err != nil || backups != nil {
			t.Errorf("expected nil, nil; got %v, %v", backups, err)
		}
	})

	t.Run("list multiple backups newest first", func(t *testing.T) {
		timestamps := []string{"20260101-100000.000", "20260101-120000.000", "20260101-110000.000"}
		for _, ts := range timestamps {
			if err := os.WriteFile(configPath+".bak."+ts, []byte("test"), 0o644); err != nil {
				t.Fatalf("failed to create backup: %v", err)
			}
		}
		// Backups of other files are ignored.
		if err := os.WriteFile(filepath.Join(configDir, "other.yaml.bak.20260101-130000.000"), nil, 0o644); err != nil {
			t.Fatal(err)
		}

		backups, err := ListBackups(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(backups) != 3 {
			t.Fatalf("expected 3 backups, got %d", len(backups))
		}
		if !strings.HasSuffix(backups[0], "120000.000") || !strings.HasSuffix(backups[2], "100000.000") {
			t.Errorf("backups not sorted newest first: %v", backups)
		}
	})

	t.Run("cleanup old backups", func(t *testing.T) {
		if err := os.WriteFile(configPath, []byte("test config"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		for i := 0; i < 4; i++ {
			if _, err := BackupFile(configPath); err != nil {
				t.Fatalf("failed to create backup: %v", err)
			}
			time.Sleep(10 * time.Millisecond)
		}

		backups, err := ListBackups(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(backups) != MaxBackups {
			t.Errorf("expected %d backups, got %d", MaxBackups, len(backups))
		}
	})
}

func TestRestoreBackup(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "dichotomy.yaml")
	backupPath := filepath.Join(dir, "saved.yaml")

	if err := os.WriteFile(backupPath, []byte("search:\n  precision: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configPath, []byte("search:\n  precision: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RestoreBackup(configPath, backupPath); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "search:\n  precision: 1\n" {
		t.Errorf("config not restored: %q", data)
	}

	// The replaced config was backed up first.
	backups, err := ListBackups(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup of the replaced config, got %d", len(backups))
	}

	if err := RestoreBackup(configPath, filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing backup")
	}
}

func TestWriteYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewConfig()
	cfg.Search.Strategy = StrategySteps
	cfg.Search.StepSize = 25

	if err := cfg.WriteYAML(configPath); err != nil {
		t.Fatalf("failed to write YAML: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	content := string(data)
	for _, want := range []string{"strategy: steps", "step_size: 25", "min: -1000", "id: north-south"} {
		if !strings.Contains(content, want) {
			t.Errorf("written file should contain %q:\n%s", want, content)
		}
	}
}

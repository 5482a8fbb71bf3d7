package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCommand_CreatesConfigAndWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("USERPROFILE", tmpDir)

	output := captureOutput(t, func() {
		if err := runInit(nil, nil); err != nil {
			t.Fatalf("runInit error: %v", err)
		}
	})

	if !strings.Contains(output, "Warden initialized!") {
		t.Fatalf("unexpected output: %s", output)
	}

	configPath := filepath.Join(tmpDir, ".warden", "config.json")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config not created: %v", err)
	}
	for _, dir := range []string{"workspace", "workspace/conversations", "workspace/state"} {
		if _, err := os.Stat(filepath.Join(tmpDir, ".warden", dir)); err != nil {
			t.Fatalf("directory %s not created: %v", dir, err)
		}
	}
}

func TestInitCommand_SecondRunLeavesConfigAlone(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("USERPROFILE", tmpDir)

	captureOutput(t, func() {
		if err := runInit(nil, nil); err != nil {
			t.Fatalf("first runInit error: %v", err)
		}
	})

	output := captureOutput(t, func() {
		if err := runInit(nil, nil); err != nil {
			t.Fatalf("second runInit error: %v", err)
		}
	})
	if !strings.Contains(output, "already exists") {
		t.Fatalf("unexpected output: %s", output)
	}
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir string, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "unused-finder.json")
	body := `{"repoRoot": "` + dir + `"` + extra + `}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestExecuteAnalysePrintsReport(t *testing.T) {
	dir := t.TempDir()
	// The exports field keeps index.ts out of the entry seeds.
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "root", "exports": "./main.ts"}`), 0o600); err != nil {
		t.Fatalf("write package.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.ts"), []byte(`export const orphan = 1;`), 0o600); err != nil {
		t.Fatalf("write index.ts: %v", err)
	}
	configPath := writeConfig(t, dir, "")

	application := New(&bytes.Buffer{})
	req := Request{Mode: ModeAnalyse, ConfigPath: configPath}

	output, err := application.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute analyse: %v", err)
	}
	if !strings.Contains(output, "index.ts") {
		t.Errorf("expected the unused file to appear in the report, got:\n%s", output)
	}
}

func TestExecuteGraphWritesDotFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "root"}`), 0o600); err != nil {
		t.Fatalf("write package.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.ts"), []byte(`export const a = 1;`), 0o600); err != nil {
		t.Fatalf("write index.ts: %v", err)
	}
	configPath := writeConfig(t, dir, "")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd)

	application := New(&bytes.Buffer{})
	req := Request{Mode: ModeGraph, ConfigPath: configPath, GraphFilter: "index"}

	if _, err := application.Execute(context.Background(), req); err != nil {
		t.Fatalf("execute graph: %v", err)
	}
	if _, err := os.Stat("graph.dot"); err != nil {
		t.Errorf("expected graph.dot to be written: %v", err)
	}
}

func TestExecuteUnknownMode(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "")
	application := New(&bytes.Buffer{})
	if _, err := application.Execute(context.Background(), Request{Mode: "bogus", ConfigPath: configPath}); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestLoadConfigAppliesDeadlockDetectorOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "")
	cfg, err := loadConfig(Request{ConfigPath: configPath, DeadlockDetector: true})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.DeadlockDetector {
		t.Error("expected --deadlock-detector to override the config file's default")
	}
}

func TestLoadConfigRejectsUnknownSchemaField(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, `, "bogus": true`)
	if _, err := loadConfig(Request{ConfigPath: configPath}); err == nil {
		t.Error("expected schema validation to reject an unknown config field")
	}
}

func TestLoadConfigRelativeRepoRootResolvesAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unused-finder.json")
	if err := os.WriteFile(path, []byte(`{"repoRoot": "."}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadConfig(Request{ConfigPath: path})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !filepath.IsAbs(cfg.RepoRoot) {
		t.Errorf("expected repoRoot to be resolved to an absolute path, got %q", cfg.RepoRoot)
	}
}

var _ = json.Marshal

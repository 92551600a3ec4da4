package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "rowql_data.json" {
		t.Fatalf("unexpected default storage path: %q", cfg.Storage.Path)
	}
	if cfg.Audit.RepeatedViolationLimit != 3 {
		t.Fatalf("unexpected default violation limit: %d", cfg.Audit.RepeatedViolationLimit)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rowql.yaml")
	content := `
storage:
  path: /tmp/custom.json
audit:
  path: /tmp/audit.log
  slow_query_threshold: 500ms
  repeated_violation_window: 30s
  repeated_violation_limit: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "/tmp/custom.json" {
		t.Fatalf("unexpected storage path: %q", cfg.Storage.Path)
	}
	if cfg.Audit.Path != "/tmp/audit.log" {
		t.Fatalf("unexpected audit path: %q", cfg.Audit.Path)
	}
	if cfg.Audit.SlowQueryThreshold != Duration(500*time.Millisecond) {
		t.Fatalf("unexpected slow query threshold: %v", cfg.Audit.SlowQueryThreshold)
	}
	if cfg.Audit.RepeatedViolationLimit != 5 {
		t.Fatalf("unexpected violation limit: %d", cfg.Audit.RepeatedViolationLimit)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/rowql.yaml"); err == nil {
		t.Fatalf("expected error loading missing file")
	}
}

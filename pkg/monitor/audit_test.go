package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileAuditLoggerWritesParseableLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewFileAuditLogger(path)
	if err != nil {
		t.Fatalf("NewFileAuditLogger: %v", err)
	}

	logger.Log("SELECT * FROM users", "entry-1", 2*time.Millisecond, nil)
	logger.Log("INSERT INTO users VALUES (1)", "entry-2", time.Millisecond, errors.New("table 'users' does not exist"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}

	p := NewLogProcessor()
	var processed []*ProcessedQuery
	p.SetQueryHandler(func(pq *ProcessedQuery) { processed = append(processed, pq) })
	for _, line := range lines {
		p.processLine(line)
	}

	if len(processed) != 2 {
		t.Fatalf("expected processor to parse 2 lines, got %d", len(processed))
	}
	if processed[0].Query != "SELECT * FROM users" || processed[0].Err != nil || processed[0].EntryID != "entry-1" {
		t.Fatalf("unexpected first entry: %+v", processed[0])
	}
	if processed[1].Err == nil || !strings.Contains(processed[1].Err.Error(), "does not exist") || processed[1].EntryID != "entry-2" {
		t.Fatalf("unexpected second entry error: %+v", processed[1])
	}
}

func TestFlattenRemovesControlCharacters(t *testing.T) {
	in := "SELECT 1\tFROM\nusers\r"
	out := flatten(in)
	if strings.ContainsAny(out, "\t\n\r") {
		t.Fatalf("expected no control characters, got %q", out)
	}
}

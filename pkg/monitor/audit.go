package monitor

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// FileAuditLogger implements pkg/session.AuditLogger by appending one
// tab-separated line per query to a file. LogProcessor tails and parses
// exactly this format: "<RFC3339Nano timestamp>\t<entry ID>\t<duration
// seconds>\t<OK or ERROR: msg>\t<query text>". The entry ID is the
// session's transaction UUID when the query ran inside a BEGIN/COMMIT
// block, letting every statement in that transaction be correlated back
// to the same entry; outside a transaction it is a fresh UUID per query.
type FileAuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileAuditLogger opens (creating if necessary) the audit log at path
// for appending.
func NewFileAuditLogger(path string) (*FileAuditLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("monitor: opening audit log %s: %w", path, err)
	}
	return &FileAuditLogger{file: f}, nil
}

// Log writes one audit entry. The query text has embedded tabs and
// newlines flattened so the line stays parseable.
func (l *FileAuditLogger) Log(query string, entryID string, duration time.Duration, err error) {
	status := "OK"
	if err != nil {
		status = "ERROR: " + flatten(err.Error())
	}

	line := fmt.Sprintf("%s\t%s\t%.6f\t%s\t%s\n",
		time.Now().Format(time.RFC3339Nano),
		entryID,
		duration.Seconds(),
		status,
		flatten(query),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.WriteString(line)
}

// Close closes the underlying audit log file.
func (l *FileAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

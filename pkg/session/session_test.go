package session

import (
	"strings"
	"testing"
	"time"
)

type recordingAudit struct {
	lines    []string
	entryIDs []string
}

func (r *recordingAudit) Log(query string, entryID string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	if entryID == "" {
		status = "no-id:" + status
	}
	r.lines = append(r.lines, query+":"+status)
	r.entryIDs = append(r.entryIDs, entryID)
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCreateInsertSelect(t *testing.T) {
	s := newTestSession(t)

	out, err := s.ProcessQuery("CREATE TABLE users (id INTEGER, name TEXT, age INTEGER)")
	if err != nil || out != "Table 'users' created" {
		t.Fatalf("CREATE TABLE: out=%q err=%v", out, err)
	}

	out, err = s.ProcessQuery("INSERT INTO users VALUES (1, 'Alice', 25)")
	if err != nil || out != "1 row(s) inserted" {
		t.Fatalf("INSERT: out=%q err=%v", out, err)
	}

	out, err = s.ProcessQuery("INSERT INTO users VALUES (2, 'Bob', 30), (3, 'Charlie', 35)")
	if err != nil || out != "2 row(s) inserted" {
		t.Fatalf("INSERT (multi): out=%q err=%v", out, err)
	}

	out, err = s.ProcessQuery("SELECT * FROM users")
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	for _, name := range []string{"Alice", "Bob", "Charlie"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected result to contain %q, got %q", name, out)
		}
	}
	if !strings.Contains(out, strings.Repeat("-", 40)) {
		t.Fatalf("expected 40-dash separator, got %q", out)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s := newTestSession(t)
	mustOK(t, s, "CREATE TABLE users (id INTEGER, name TEXT, age INTEGER)")
	mustOK(t, s, "INSERT INTO users VALUES (1, 'Alice', 25), (2, 'Bob', 30)")

	out, err := s.ProcessQuery("UPDATE users SET age = 26 WHERE name = 'Alice'")
	if err != nil || out != "1 row(s) updated" {
		t.Fatalf("UPDATE: out=%q err=%v", out, err)
	}

	out, err = s.ProcessQuery("DELETE FROM users WHERE name = 'Bob'")
	if err != nil || out != "1 row(s) deleted" {
		t.Fatalf("DELETE: out=%q err=%v", out, err)
	}

	out, err = s.ProcessQuery("SELECT * FROM users")
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if !strings.Contains(out, "26") || strings.Contains(out, "Bob") {
		t.Fatalf("unexpected result after update/delete: %q", out)
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	s := newTestSession(t)
	mustOK(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")

	out, err := s.ProcessQuery("BEGIN TRANSACTION")
	if err != nil || out != "Transaction begun" {
		t.Fatalf("BEGIN: out=%q err=%v", out, err)
	}

	mustOK(t, s, "INSERT INTO users VALUES (1, 'Alice')")
	mustOK(t, s, "INSERT INTO users VALUES (2, 'Bob')")

	out, err = s.ProcessQuery("COMMIT TRANSACTION")
	if err != nil || out != "Transaction committed" {
		t.Fatalf("COMMIT: out=%q err=%v", out, err)
	}

	out, _ = s.ProcessQuery("SELECT * FROM users")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Fatalf("expected committed rows to survive: %q", out)
	}

	mustOK(t, s, "BEGIN TRANSACTION")
	mustOK(t, s, "INSERT INTO users VALUES (3, 'Charlie')")
	out, err = s.ProcessQuery("ROLLBACK TRANSACTION")
	if err != nil || out != "Transaction rolled back" {
		t.Fatalf("ROLLBACK: out=%q err=%v", out, err)
	}

	out, _ = s.ProcessQuery("SELECT * FROM users")
	if strings.Contains(out, "Charlie") {
		t.Fatalf("expected rolled-back insert to disappear: %q", out)
	}
}

func TestNestedTransactionError(t *testing.T) {
	s := newTestSession(t)
	mustOK(t, s, "BEGIN TRANSACTION")
	_, err := s.ProcessQuery("BEGIN TRANSACTION")
	if err == nil || !strings.Contains(err.Error(), "Transaction already in progress") {
		t.Fatalf("expected nested-begin error, got %v", err)
	}
	mustOK(t, s, "ROLLBACK TRANSACTION")
}

func TestCommitWithoutTransactionError(t *testing.T) {
	s := newTestSession(t)
	_, err := s.ProcessQuery("COMMIT TRANSACTION")
	if err == nil || !strings.Contains(err.Error(), "No transaction in progress") {
		t.Fatalf("expected no-transaction error, got %v", err)
	}
}

func TestAuditLoggerReceivesEveryQuery(t *testing.T) {
	audit := &recordingAudit{}
	s, err := New(nil, audit)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustOK(t, s, "CREATE TABLE users (id INTEGER)")
	if _, err := s.ProcessQuery("SELECT * FROM nonexistent"); err == nil {
		t.Fatalf("expected error selecting nonexistent table")
	}
	if len(audit.lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %v", len(audit.lines), audit.lines)
	}
	if !strings.HasSuffix(audit.lines[0], ":ok") || !strings.HasSuffix(audit.lines[1], ":error") {
		t.Fatalf("unexpected audit lines: %v", audit.lines)
	}
}

func TestAuditEntryIDCorrelatesWithinTransaction(t *testing.T) {
	audit := &recordingAudit{}
	s, err := New(nil, audit)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustOK(t, s, "CREATE TABLE users (id INTEGER)")
	mustOK(t, s, "BEGIN TRANSACTION")
	mustOK(t, s, "INSERT INTO users VALUES (1)")
	mustOK(t, s, "INSERT INTO users VALUES (2)")
	mustOK(t, s, "COMMIT TRANSACTION")

	if len(audit.entryIDs) != 5 {
		t.Fatalf("expected 5 audit entries, got %d", len(audit.entryIDs))
	}
	beginID, insert1ID, insert2ID := audit.entryIDs[1], audit.entryIDs[2], audit.entryIDs[3]
	if beginID == "" || beginID != insert1ID || insert1ID != insert2ID {
		t.Fatalf("expected BEGIN/INSERT/INSERT to share an entry ID, got %v", audit.entryIDs[1:4])
	}
	if audit.entryIDs[0] == beginID || audit.entryIDs[4] == beginID {
		t.Fatalf("expected statements outside the transaction to get distinct entry IDs: %v", audit.entryIDs)
	}
}

func TestDescribeTable(t *testing.T) {
	s := newTestSession(t)
	mustOK(t, s, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)")
	out, err := s.ProcessQuery("DESCRIBE users")
	if err != nil {
		t.Fatalf("DESCRIBE: %v", err)
	}
	header := strings.SplitN(out, "\n", 2)[0]
	if header != "Name\tType\tNullable\tPrimary\tUnique\tDefault\tForeignKey" {
		t.Fatalf("unexpected DESCRIBE header: %q", header)
	}
	if !strings.Contains(out, "id") || !strings.Contains(out, "name") {
		t.Fatalf("expected column names in DESCRIBE output: %q", out)
	}
	if !strings.Contains(out, "name\tTEXT\tfalse\tfalse\ttrue\tNULL\t") {
		t.Fatalf("expected name column's Nullable/Unique/Default fields: %q", out)
	}
}

func TestAlterTableResponsePhrasing(t *testing.T) {
	s := newTestSession(t)
	mustOK(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")

	out, err := s.ProcessQuery("ALTER TABLE users ADD COLUMN age INTEGER")
	if err != nil || out != "Column 'age' added" {
		t.Fatalf("ALTER ADD: out=%q err=%v", out, err)
	}

	out, err = s.ProcessQuery("ALTER TABLE users RENAME COLUMN age TO years")
	if err != nil || out != "Column 'age' renamed to 'years'" {
		t.Fatalf("ALTER RENAME: out=%q err=%v", out, err)
	}

	out, err = s.ProcessQuery("ALTER TABLE users DROP COLUMN years")
	if err != nil || out != "Column 'years' dropped" {
		t.Fatalf("ALTER DROP: out=%q err=%v", out, err)
	}
}

func TestCreateIndexResponsePhrasing(t *testing.T) {
	s := newTestSession(t)
	mustOK(t, s, "CREATE TABLE users (id INTEGER, email TEXT)")

	out, err := s.ProcessQuery("CREATE INDEX idx_email ON users (email)")
	if err != nil || out != "Index 'idx_email' created on users.email" {
		t.Fatalf("CREATE INDEX: out=%q err=%v", out, err)
	}
}

func mustOK(t *testing.T, s *Session, query string) {
	t.Helper()
	if _, err := s.ProcessQuery(query); err != nil {
		t.Fatalf("query %q failed: %v", query, err)
	}
}

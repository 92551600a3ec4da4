// Package tests runs whole-engine scenarios against pkg/session's
// ProcessQuery, the way the donor's own integration suite drove its
// process_query entry point end to end.
package tests

import (
	"strings"
	"testing"

	"github.com/Chahine-tech/rowql/pkg/session"
)

func newEngine(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(nil, nil)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s
}

func run(t *testing.T, s *session.Session, query string) string {
	t.Helper()
	out, err := s.ProcessQuery(query)
	if err != nil {
		t.Fatalf("query %q failed: %v", query, err)
	}
	return out
}

func runErr(t *testing.T, s *session.Session, query string) error {
	t.Helper()
	_, err := s.ProcessQuery(query)
	if err == nil {
		t.Fatalf("query %q: expected an error", query)
	}
	return err
}

func TestCreateTableRejectsDuplicate(t *testing.T) {
	s := newEngine(t)
	out := run(t, s, "CREATE TABLE users (id INTEGER, name TEXT, age INTEGER)")
	if out != "Table 'users' created" {
		t.Fatalf("unexpected response: %q", out)
	}

	err := runErr(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}
}

func TestInsertAndSelect(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT, age INTEGER)")

	if out := run(t, s, "INSERT INTO users VALUES (1, 'Alice', 25)"); out != "1 row(s) inserted" {
		t.Fatalf("unexpected insert response: %q", out)
	}
	if out := run(t, s, "INSERT INTO users VALUES (2, 'Bob', 30), (3, 'Charlie', 35)"); out != "2 row(s) inserted" {
		t.Fatalf("unexpected multi-insert response: %q", out)
	}

	out := run(t, s, "SELECT * FROM users")
	for _, want := range []string{"Alice", "Bob", "Charlie"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in result: %q", want, out)
		}
	}

	out = run(t, s, "SELECT name, age FROM users")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "25") {
		t.Fatalf("expected projected columns in result: %q", out)
	}
	if strings.Contains(strings.SplitN(out, "\n", 2)[0], "id") {
		t.Fatalf("expected id column to be excluded from projection header: %q", out)
	}
}

func TestWhereClauseFiltersRows(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT, age INTEGER)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice', 25), (2, 'Bob', 30), (3, 'Charlie', 35)")

	out := run(t, s, "SELECT name FROM users WHERE age > 30")
	if !strings.Contains(out, "Charlie") || strings.Contains(out, "Alice") || strings.Contains(out, "Bob") {
		t.Fatalf("unexpected WHERE > result: %q", out)
	}

	out = run(t, s, "SELECT name FROM users WHERE age > 20 AND age < 35")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") || strings.Contains(out, "Charlie") {
		t.Fatalf("unexpected AND result: %q", out)
	}

	out = run(t, s, "SELECT name FROM users WHERE age = 25 OR age = 35")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Charlie") || strings.Contains(out, "Bob") {
		t.Fatalf("unexpected OR result: %q", out)
	}
}

func TestUpdateAndDeleteAffectOnlyMatchingRows(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT, age INTEGER)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice', 25), (2, 'Bob', 30), (3, 'Charlie', 35)")

	if out := run(t, s, "UPDATE users SET age = 26 WHERE name = 'Alice'"); out != "1 row(s) updated" {
		t.Fatalf("unexpected update response: %q", out)
	}
	out := run(t, s, "SELECT age FROM users WHERE name = 'Alice'")
	if !strings.Contains(out, "26") {
		t.Fatalf("expected updated age: %q", out)
	}

	if out := run(t, s, "DELETE FROM users WHERE name = 'Bob'"); out != "1 row(s) deleted" {
		t.Fatalf("unexpected delete response: %q", out)
	}
	out = run(t, s, "SELECT * FROM users")
	if strings.Contains(out, "Bob") || !strings.Contains(out, "Charlie") {
		t.Fatalf("unexpected post-delete result: %q", out)
	}
}

func TestOrderByAscAndDesc(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT, age INTEGER)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice', 30), (2, 'Bob', 25), (3, 'Charlie', 35)")

	out := run(t, s, "SELECT name FROM users ORDER BY age ASC")
	lines := strings.Split(out, "\n")
	if pos(lines, "Bob") >= pos(lines, "Alice") {
		t.Fatalf("expected Bob before Alice ascending by age: %q", out)
	}

	out = run(t, s, "SELECT name FROM users ORDER BY age DESC")
	lines = strings.Split(out, "\n")
	if pos(lines, "Charlie") >= pos(lines, "Alice") {
		t.Fatalf("expected Charlie before Alice descending by age: %q", out)
	}
}

func pos(lines []string, needle string) int {
	for i, line := range lines {
		if strings.Contains(line, needle) {
			return i
		}
	}
	return -1
}

func TestInnerJoinAndLeftJoin(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")
	run(t, s, "CREATE TABLE orders (id INTEGER, user_id INTEGER, product TEXT)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob'), (3, 'Charlie')")
	run(t, s, "INSERT INTO orders VALUES (101, 1, 'Laptop'), (102, 2, 'Keyboard')")

	out := run(t, s, "SELECT users.name, orders.product FROM users JOIN orders ON users.id = orders.user_id")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Laptop") || strings.Contains(out, "Charlie") {
		t.Fatalf("unexpected inner join result: %q", out)
	}

	out = run(t, s, "SELECT users.name, orders.product FROM users LEFT JOIN orders ON users.id = orders.user_id")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") || strings.Contains(out, "Charlie") {
		t.Fatalf("expected LEFT JOIN to parse and execute as the cross-product filtered by the join condition: %q", out)
	}
}

func TestForeignKeyConstraintRejectsUnknownParent(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob')")
	run(t, s, "CREATE TABLE orders (id INTEGER, user_id INTEGER FOREIGN KEY REFERENCES users(id))")

	if out := run(t, s, "INSERT INTO orders VALUES (1, 1)"); out != "1 row(s) inserted" {
		t.Fatalf("expected valid foreign key insert to succeed: %q", out)
	}

	err := runErr(t, s, "INSERT INTO orders VALUES (2, 999)")
	if !strings.Contains(err.Error(), "foreign key constraint violation") {
		t.Fatalf("expected foreign key violation error, got %v", err)
	}
}

func TestForeignKeyOnDeleteCascade(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob')")
	run(t, s, "CREATE TABLE orders (id INTEGER, user_id INTEGER FOREIGN KEY REFERENCES users(id) ON DELETE CASCADE)")
	run(t, s, "INSERT INTO orders VALUES (1, 1), (2, 2)")

	run(t, s, "DELETE FROM users WHERE id = 1")

	out := run(t, s, "SELECT * FROM orders")
	if strings.Contains(out, "1\t1") {
		t.Fatalf("expected cascaded order row to be removed: %q", out)
	}
	if !strings.Contains(out, "2") {
		t.Fatalf("expected surviving order row: %q", out)
	}
}

func TestForeignKeyOnDeleteRestrict(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice')")
	run(t, s, "CREATE TABLE orders (id INTEGER, user_id INTEGER FOREIGN KEY REFERENCES users(id) ON DELETE RESTRICT)")
	run(t, s, "INSERT INTO orders VALUES (1, 1)")

	runErr(t, s, "DELETE FROM users WHERE id = 1")
}

func TestTransactionCommitPersistsAndRollbackDiscards(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT)")

	if out := run(t, s, "BEGIN TRANSACTION"); out != "Transaction begun" {
		t.Fatalf("unexpected BEGIN response: %q", out)
	}
	run(t, s, "INSERT INTO users VALUES (1, 'Alice')")
	run(t, s, "INSERT INTO users VALUES (2, 'Bob')")
	if out := run(t, s, "COMMIT TRANSACTION"); out != "Transaction committed" {
		t.Fatalf("unexpected COMMIT response: %q", out)
	}

	out := run(t, s, "SELECT * FROM users")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Fatalf("expected committed rows to survive: %q", out)
	}

	run(t, s, "BEGIN TRANSACTION")
	run(t, s, "INSERT INTO users VALUES (3, 'Charlie')")
	if out := run(t, s, "ROLLBACK TRANSACTION"); out != "Transaction rolled back" {
		t.Fatalf("unexpected ROLLBACK response: %q", out)
	}

	out = run(t, s, "SELECT * FROM users")
	if strings.Contains(out, "Charlie") {
		t.Fatalf("expected rolled-back insert to vanish: %q", out)
	}
}

func TestUniqueConstraintRejectsDuplicateValue(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, email TEXT UNIQUE)")
	run(t, s, "INSERT INTO users VALUES (1, 'alice@example.com')")

	runErr(t, s, "INSERT INTO users VALUES (2, 'alice@example.com')")
}

func TestDescribeAndExplain(t *testing.T) {
	s := newEngine(t)
	run(t, s, "CREATE TABLE users (id INTEGER, name TEXT NOT NULL)")
	run(t, s, "INSERT INTO users VALUES (1, 'Alice')")

	out := run(t, s, "DESCRIBE users")
	if !strings.Contains(out, "id") || !strings.Contains(out, "name") {
		t.Fatalf("expected column names in DESCRIBE output: %q", out)
	}

	out = run(t, s, "EXPLAIN SELECT * FROM users WHERE id = 1")
	if out == "" {
		t.Fatalf("expected a non-empty EXPLAIN plan")
	}
}

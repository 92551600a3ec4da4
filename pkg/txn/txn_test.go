package txn

import (
	"testing"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/value"
)

func newUsersDB(t *testing.T) *catalog.Database {
	t.Helper()
	d := catalog.NewDatabase()
	if err := d.CreateTable(&ast.CreateTableStatement{
		Table: "users",
		Columns: []*ast.ColumnDefinition{
			{Name: "id", DataType: "INTEGER"},
			{Name: "name", DataType: "TEXT"},
		},
	}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return d
}

func TestBeginCommitKeepsMutations(t *testing.T) {
	db := newUsersDB(t)
	m := New()

	if err := m.Begin(db); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	table, _ := db.GetTable("users")
	if _, err := db.InsertRow(table, []value.Value{value.NewInteger(1), value.NewText("Alice")}); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}

	if err := m.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if m.Active() {
		t.Fatalf("expected no active transaction after commit")
	}

	table, _ = db.GetTable("users")
	if len(table.Rows) != 1 {
		t.Fatalf("expected committed row to survive, got %d rows", len(table.Rows))
	}
}

func TestBeginRollbackDiscardsMutations(t *testing.T) {
	db := newUsersDB(t)
	table, _ := db.GetTable("users")
	if _, err := db.InsertRow(table, []value.Value{value.NewInteger(1), value.NewText("Alice")}); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}

	m := New()
	if err := m.Begin(db); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	table, _ = db.GetTable("users")
	if _, err := db.InsertRow(table, []value.Value{value.NewInteger(2), value.NewText("Bob")}); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if _, err := db.InsertRow(table, []value.Value{value.NewInteger(3), value.NewText("Charlie")}); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}

	if err := m.Rollback(db); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	table, _ = db.GetTable("users")
	if len(table.Rows) != 1 {
		t.Fatalf("expected rollback to restore to 1 row, got %d", len(table.Rows))
	}
	if table.Rows[0][1].Text() != "Alice" {
		t.Fatalf("expected surviving row to be Alice, got %v", table.Rows[0])
	}
}

func TestIDIsStableWithinATransaction(t *testing.T) {
	db := newUsersDB(t)
	m := New()
	if _, ok := m.ID(); ok {
		t.Fatalf("expected no ID before Begin")
	}
	if err := m.Begin(db); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id1, ok := m.ID()
	if !ok {
		t.Fatalf("expected an ID while active")
	}
	id2, _ := m.ID()
	if id1 != id2 {
		t.Fatalf("expected stable ID across calls, got %v and %v", id1, id2)
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, ok := m.ID(); ok {
		t.Fatalf("expected no ID after Commit")
	}
}

func TestNestedBeginErrors(t *testing.T) {
	db := newUsersDB(t)
	m := New()
	if err := m.Begin(db); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := m.Begin(db); err != ErrAlreadyInProgress {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}
}

func TestCommitWithoutBeginErrors(t *testing.T) {
	m := New()
	if err := m.Commit(); err != ErrNoneInProgress {
		t.Fatalf("expected ErrNoneInProgress, got %v", err)
	}
}

func TestRollbackWithoutBeginErrors(t *testing.T) {
	db := newUsersDB(t)
	m := New()
	if err := m.Rollback(db); err != ErrNoneInProgress {
		t.Fatalf("expected ErrNoneInProgress, got %v", err)
	}
}

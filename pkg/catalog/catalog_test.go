package catalog

import (
	"testing"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/value"
)

func mustCreateUsers(t *testing.T, d *Database) *Table {
	t.Helper()
	stmt := &ast.CreateTableStatement{
		Table: "users",
		Columns: []*ast.ColumnDefinition{
			{Name: "id", DataType: "INTEGER", PrimaryKey: true},
			{Name: "name", DataType: "TEXT", NotNull: true},
			{Name: "age", DataType: "INTEGER"},
		},
	}
	if err := d.CreateTable(stmt); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	table, ok := d.GetTable("users")
	if !ok {
		t.Fatalf("table not found after create")
	}
	return table
}

func TestInsertRejectsDuplicatePrimaryKey(t *testing.T) {
	d := NewDatabase()
	table := mustCreateUsers(t, d)

	if _, err := d.InsertRow(table, []value.Value{value.NewInteger(1), value.NewText("a"), value.NewInteger(20)}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := d.InsertRow(table, []value.Value{value.NewInteger(1), value.NewText("b"), value.NewInteger(21)}); err == nil {
		t.Fatalf("expected duplicate primary key error")
	}
}

func TestInsertRejectsNotNullViolation(t *testing.T) {
	d := NewDatabase()
	table := mustCreateUsers(t, d)

	_, err := d.InsertRow(table, []value.Value{value.NewInteger(1), value.NewNull(), value.NewInteger(20)})
	if err == nil {
		t.Fatalf("expected NOT NULL violation")
	}
}

func TestDeleteCompactsIndexPositions(t *testing.T) {
	d := NewDatabase()
	table := mustCreateUsers(t, d)
	d.InsertRow(table, []value.Value{value.NewInteger(1), value.NewText("a"), value.NewInteger(20)})
	d.InsertRow(table, []value.Value{value.NewInteger(2), value.NewText("b"), value.NewInteger(30)})
	d.InsertRow(table, []value.Value{value.NewInteger(3), value.NewText("c"), value.NewInteger(40)})

	if err := d.CreateIndex(&ast.CreateIndexStatement{IndexName: "idx_age", Table: "users", Columns: []string{"age"}}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	if err := d.DeleteRow(table, 0); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}

	idx := table.Indexes["idx_age"]
	positions := idx.Lookup(value.NewInteger(40))
	if len(positions) != 1 || positions[0] != 1 {
		t.Fatalf("expected row for age=40 to be compacted to position 1, got %v", positions)
	}
}

func TestForeignKeyCascadeDelete(t *testing.T) {
	d := NewDatabase()
	mustCreateUsers(t, d)
	orders := &ast.CreateTableStatement{
		Table: "orders",
		Columns: []*ast.ColumnDefinition{
			{Name: "id", DataType: "INTEGER", PrimaryKey: true},
			{Name: "user_id", DataType: "INTEGER", References: &ast.ForeignKeyReference{
				Table: "users", Columns: []string{"id"}, OnDelete: "CASCADE",
			}},
		},
	}
	if err := d.CreateTable(orders); err != nil {
		t.Fatalf("CreateTable orders: %v", err)
	}

	users, _ := d.GetTable("users")
	ordersTable, _ := d.GetTable("orders")

	d.InsertRow(users, []value.Value{value.NewInteger(1), value.NewText("a"), value.NewInteger(20)})
	d.InsertRow(ordersTable, []value.Value{value.NewInteger(100), value.NewInteger(1)})

	if err := d.DeleteRow(users, 0); err != nil {
		t.Fatalf("DeleteRow users: %v", err)
	}
	if len(ordersTable.Rows) != 0 {
		t.Fatalf("expected cascade delete to remove order row, got %d rows", len(ordersTable.Rows))
	}
}

func TestForeignKeyRestrictBlocksDelete(t *testing.T) {
	d := NewDatabase()
	mustCreateUsers(t, d)
	orders := &ast.CreateTableStatement{
		Table: "orders",
		Columns: []*ast.ColumnDefinition{
			{Name: "id", DataType: "INTEGER", PrimaryKey: true},
			{Name: "user_id", DataType: "INTEGER", References: &ast.ForeignKeyReference{
				Table: "users", Columns: []string{"id"}, OnDelete: "RESTRICT",
			}},
		},
	}
	d.CreateTable(orders)
	users, _ := d.GetTable("users")
	ordersTable, _ := d.GetTable("orders")
	d.InsertRow(users, []value.Value{value.NewInteger(1), value.NewText("a"), value.NewInteger(20)})
	d.InsertRow(ordersTable, []value.Value{value.NewInteger(100), value.NewInteger(1)})

	if err := d.DeleteRow(users, 0); err == nil {
		t.Fatalf("expected RESTRICT to block delete")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	d := NewDatabase()
	table := mustCreateUsers(t, d)
	d.InsertRow(table, []value.Value{value.NewInteger(1), value.NewText("a"), value.NewInteger(20)})

	clone := d.Clone()
	cloneTable, _ := clone.GetTable("users")
	d.InsertRow(table, []value.Value{value.NewInteger(2), value.NewText("b"), value.NewInteger(21)})

	if len(cloneTable.Rows) != 1 {
		t.Fatalf("expected clone to be unaffected by later insert, got %d rows", len(cloneTable.Rows))
	}
}

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/value"
)

func buildSampleDB(t *testing.T) *catalog.Database {
	t.Helper()
	db := catalog.NewDatabase()
	require.NoError(t, db.CreateTable(&ast.CreateTableStatement{
		Table: "users",
		Columns: []*ast.ColumnDefinition{
			{Name: "id", DataType: "INTEGER", PrimaryKey: true},
			{Name: "name", DataType: "TEXT"},
			{Name: "active", DataType: "BOOLEAN", Default: &ast.Literal{Value: value.NewBoolean(true)}},
		},
	}))
	table, _ := db.GetTable("users")
	_, err := db.InsertRow(table, []value.Value{value.NewInteger(1), value.NewText("Alice"), value.NewBoolean(true)})
	require.NoError(t, err)
	_, err = db.InsertRow(table, []value.Value{value.NewInteger(2), value.NewText("Bob"), value.NewBoolean(false)})
	require.NoError(t, err)
	require.NoError(t, db.CreateIndex(&ast.CreateIndexStatement{IndexName: "idx_name", Table: "users", Columns: []string{"name"}}))
	return db
}

func TestJSONFileEngineLoadMissingReturnsEmptyDatabase(t *testing.T) {
	eng := NewJSONFileEngine(filepath.Join(t.TempDir(), "does_not_exist.json"))
	db, err := eng.Load()
	require.NoError(t, err)
	assert.Empty(t, db.TableNames())
}

func TestJSONFileEngineSaveAndLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowql_data.json")
	eng := NewJSONFileEngine(path)

	db := buildSampleDB(t)
	require.NoError(t, eng.Save(db))

	loaded, err := eng.Load()
	require.NoError(t, err)

	table, ok := loaded.GetTable("users")
	require.True(t, ok)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Alice", table.Rows[0][1].Text())
	assert.True(t, table.Rows[0][2].Boolean())
	assert.False(t, table.Rows[1][2].Boolean())

	col, ok := table.GetColumn("active")
	require.True(t, ok)
	require.NotNil(t, col.Default)
	assert.True(t, col.Default.Boolean())

	idx, ok := table.Indexes["idx_name"]
	require.True(t, ok)
	assert.Equal(t, []int{0}, idx.Lookup(value.NewText("Alice")))
}

func TestJSONFileEngineOrdersForeignKeyDependencies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk.json")
	eng := NewJSONFileEngine(path)

	db := catalog.NewDatabase()
	require.NoError(t, db.CreateTable(&ast.CreateTableStatement{
		Table:   "departments",
		Columns: []*ast.ColumnDefinition{{Name: "id", DataType: "INTEGER", PrimaryKey: true}},
	}))
	require.NoError(t, db.CreateTable(&ast.CreateTableStatement{
		Table: "employees",
		Columns: []*ast.ColumnDefinition{
			{Name: "id", DataType: "INTEGER", PrimaryKey: true},
			{Name: "dept_id", DataType: "INTEGER", References: &ast.ForeignKeyReference{Table: "departments", Columns: []string{"id"}}},
		},
	}))
	require.NoError(t, eng.Save(db))

	loaded, err := eng.Load()
	require.NoError(t, err)
	_, ok := loaded.GetTable("employees")
	assert.True(t, ok)
	_, ok = loaded.GetTable("departments")
	assert.True(t, ok)
}

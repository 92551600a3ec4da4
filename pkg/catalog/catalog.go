// Package catalog owns the in-memory table/column/index definitions and
// the row storage backing them, plus every mutation operation (DDL and
// per-row DML) that must preserve the engine's data-model invariants.
package catalog

import (
	"fmt"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/value"
)

// Column describes one column of a Table.
type Column struct {
	Name       string
	DataType   value.Kind
	NotNull    bool
	PrimaryKey bool
	Unique     bool
	Default    *value.Value
	References *ForeignKey
}

// ForeignKey describes a single-column foreign key relationship.
type ForeignKey struct {
	Table    string
	Column   string
	OnDelete string // "", "CASCADE", "RESTRICT", "SET NULL", "NO ACTION"
	OnUpdate string
}

// Table is a mutable row store: an ordered column list plus the rows
// themselves, in insertion order modulo compaction on delete.
type Table struct {
	Name    string
	Columns []*Column
	colPos  map[string]int
	Rows    [][]value.Value
	Indexes map[string]*Index // index name (lowercase) -> Index
}

func newTable(name string) *Table {
	return &Table{
		Name:    name,
		colPos:  make(map[string]int),
		Indexes: make(map[string]*Index),
	}
}

func (t *Table) addColumn(col *Column) {
	t.colPos[strings.ToLower(col.Name)] = len(t.Columns)
	t.Columns = append(t.Columns, col)
}

// ColumnIndex returns the 0-based position of a column (case-insensitive),
// or -1 if the table has no such column.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.colPos[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

func (t *Table) GetColumn(name string) (*Column, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	return t.Columns[i], true
}

func (t *Table) PrimaryKeyColumn() (*Column, int) {
	for i, c := range t.Columns {
		if c.PrimaryKey {
			return c, i
		}
	}
	return nil, -1
}

// Database is the whole collection of tables, case-insensitively named.
type Database struct {
	Tables map[string]*Table
}

func NewDatabase() *Database {
	return &Database{Tables: make(map[string]*Table)}
}

func (d *Database) GetTable(name string) (*Table, bool) {
	t, ok := d.Tables[strings.ToLower(name)]
	return t, ok
}

func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for _, t := range d.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Clone performs a deep copy of the database, used by pkg/txn to snapshot
// state at BEGIN and restore it on ROLLBACK.
func (d *Database) Clone() *Database {
	clone := NewDatabase()
	for key, t := range d.Tables {
		nt := newTable(t.Name)
		for _, c := range t.Columns {
			cc := *c
			if c.References != nil {
				refCopy := *c.References
				cc.References = &refCopy
			}
			if c.Default != nil {
				defCopy := *c.Default
				cc.Default = &defCopy
			}
			nt.addColumn(&cc)
		}
		nt.Rows = make([][]value.Value, len(t.Rows))
		for i, row := range t.Rows {
			rowCopy := make([]value.Value, len(row))
			copy(rowCopy, row)
			nt.Rows[i] = rowCopy
		}
		for idxName, idx := range t.Indexes {
			nt.Indexes[idxName] = idx.clone()
		}
		clone.Tables[key] = nt
	}
	return clone
}

// CatalogError is returned by every mutation operation that fails an
// invariant check; Message matches the exact wording the session layer
// surfaces to the caller.
type CatalogError struct {
	Message string
}

func (e *CatalogError) Error() string { return e.Message }

func errf(format string, args ...interface{}) error {
	return &CatalogError{Message: fmt.Sprintf(format, args...)}
}

func dataTypeKind(name string) (value.Kind, error) {
	switch strings.ToUpper(name) {
	case "INTEGER", "INT", "BIGINT", "SMALLINT":
		return value.Integer, nil
	case "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC":
		return value.Float, nil
	case "TEXT", "VARCHAR", "CHAR", "STRING":
		return value.Text, nil
	case "BOOLEAN", "BOOL":
		return value.Boolean, nil
	case "DATE":
		return value.Date, nil
	case "TIME":
		return value.Time, nil
	case "DATETIME", "TIMESTAMP":
		return value.DateTime, nil
	default:
		return value.Null, errf("unknown data type %q", name)
	}
}

package catalog

import (
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// CreateTable realizes a CREATE TABLE statement against the database.
func (d *Database) CreateTable(stmt *ast.CreateTableStatement) error {
	key := strings.ToLower(stmt.Table)
	if _, exists := d.Tables[key]; exists {
		if stmt.IfNotExists {
			return nil
		}
		return errf("table '%s' already exists", stmt.Table)
	}

	table := newTable(stmt.Table)
	for _, colDef := range stmt.Columns {
		kind, err := dataTypeKind(colDef.DataType)
		if err != nil {
			return err
		}
		col := &Column{
			Name:       colDef.Name,
			DataType:   kind,
			NotNull:    colDef.NotNull || colDef.PrimaryKey,
			PrimaryKey: colDef.PrimaryKey,
			Unique:     colDef.Unique,
		}
		if colDef.Default != nil {
			lit, ok := colDef.Default.(*ast.Literal)
			if !ok {
				return errf("DEFAULT for column '%s' must be a literal", colDef.Name)
			}
			defaultVal := lit.Value
			col.Default = &defaultVal
		}
		if colDef.References != nil {
			if len(colDef.References.Columns) > 1 {
				return errf("composite foreign keys are not supported")
			}
			refCol := colDef.References.Table
			fkColumn := ""
			if len(colDef.References.Columns) == 1 {
				fkColumn = colDef.References.Columns[0]
			}
			col.References = &ForeignKey{
				Table:    refCol,
				Column:   fkColumn,
				OnDelete: colDef.References.OnDelete,
				OnUpdate: colDef.References.OnUpdate,
			}
		}
		table.addColumn(col)
	}

	for _, constraint := range stmt.Constraints {
		switch constraint.ConstraintType {
		case "PRIMARY_KEY":
			for _, colName := range constraint.Columns {
				col, ok := table.GetColumn(colName)
				if !ok {
					return errf("primary key references unknown column '%s'", colName)
				}
				col.PrimaryKey = true
				col.NotNull = true
			}
		case "UNIQUE":
			for _, colName := range constraint.Columns {
				col, ok := table.GetColumn(colName)
				if !ok {
					return errf("unique constraint references unknown column '%s'", colName)
				}
				col.Unique = true
			}
		case "FOREIGN_KEY":
			if len(constraint.Columns) != 1 {
				return errf("composite foreign keys are not supported")
			}
			col, ok := table.GetColumn(constraint.Columns[0])
			if !ok {
				return errf("foreign key references unknown column '%s'", constraint.Columns[0])
			}
			fkColumn := ""
			if constraint.References != nil && len(constraint.References.Columns) == 1 {
				fkColumn = constraint.References.Columns[0]
			}
			col.References = &ForeignKey{
				Table:    constraint.References.Table,
				Column:   fkColumn,
				OnDelete: constraint.References.OnDelete,
				OnUpdate: constraint.References.OnUpdate,
			}
		}
	}

	for _, col := range table.Columns {
		if col.References != nil {
			refTable, ok := d.GetTable(col.References.Table)
			if !ok {
				return errf("foreign key in table '%s' column '%s' references non-existent table '%s'",
					table.Name, col.Name, col.References.Table)
			}
			if col.References.Column == "" {
				if pk, _ := refTable.PrimaryKeyColumn(); pk != nil {
					col.References.Column = pk.Name
				} else {
					return errf("foreign key in table '%s' column '%s' must specify a referenced column", table.Name, col.Name)
				}
			} else if !refTable.HasColumn(col.References.Column) {
				return errf("foreign key in table '%s' column '%s' references non-existent column '%s.%s'",
					table.Name, col.Name, col.References.Table, col.References.Column)
			}
		}
	}

	d.Tables[key] = table
	return nil
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.GetColumn(name)
	return ok
}

// DropTable removes a table entirely.
func (d *Database) DropTable(name string, ifExists bool) error {
	key := strings.ToLower(name)
	if _, exists := d.Tables[key]; !exists {
		if ifExists {
			return nil
		}
		return errf("table '%s' does not exist", name)
	}
	delete(d.Tables, key)
	return nil
}

// AlterTable applies a single ADD/DROP column action.
func (d *Database) AlterTable(stmt *ast.AlterTableStatement) error {
	table, ok := d.GetTable(stmt.Table)
	if !ok {
		return errf("table '%s' does not exist", stmt.Table)
	}

	switch stmt.Action.ActionType {
	case "ADD":
		colDef := stmt.Action.Column
		if table.HasColumn(colDef.Name) {
			return errf("column '%s' already exists in table '%s'", colDef.Name, table.Name)
		}
		kind, err := dataTypeKind(colDef.DataType)
		if err != nil {
			return err
		}
		col := &Column{Name: colDef.Name, DataType: kind, NotNull: colDef.NotNull}
		var defaultVal value.Value
		if colDef.Default != nil {
			lit, ok := colDef.Default.(*ast.Literal)
			if !ok {
				return errf("DEFAULT for column '%s' must be a literal", colDef.Name)
			}
			defaultVal = lit.Value
		} else {
			defaultVal = value.NewNull()
		}
		if col.NotNull && defaultVal.IsNull() {
			return errf("cannot add NOT NULL column '%s' without a DEFAULT", colDef.Name)
		}
		table.addColumn(col)
		for i, row := range table.Rows {
			table.Rows[i] = append(row, defaultVal)
		}
		return nil

	case "DROP":
		pos := table.ColumnIndex(stmt.Action.ColumnName)
		if pos < 0 {
			return errf("column '%s' does not exist in table '%s'", stmt.Action.ColumnName, table.Name)
		}
		table.Columns = append(table.Columns[:pos], table.Columns[pos+1:]...)
		delete(table.colPos, strings.ToLower(stmt.Action.ColumnName))
		for name, i := range table.colPos {
			if i > pos {
				table.colPos[name] = i - 1
			}
		}
		for i, row := range table.Rows {
			table.Rows[i] = append(row[:pos], row[pos+1:]...)
		}
		for idxName, idx := range table.Indexes {
			if strings.EqualFold(idx.Column, stmt.Action.ColumnName) {
				delete(table.Indexes, idxName)
			}
		}
		return nil

	case "RENAME":
		pos := table.ColumnIndex(stmt.Action.ColumnName)
		if pos < 0 {
			return errf("column '%s' does not exist in table '%s'", stmt.Action.ColumnName, table.Name)
		}
		if table.HasColumn(stmt.Action.NewName) {
			return errf("column '%s' already exists in table '%s'", stmt.Action.NewName, table.Name)
		}
		oldName := table.Columns[pos].Name
		table.Columns[pos].Name = stmt.Action.NewName
		delete(table.colPos, strings.ToLower(oldName))
		table.colPos[strings.ToLower(stmt.Action.NewName)] = pos
		for _, idx := range table.Indexes {
			if strings.EqualFold(idx.Column, oldName) {
				idx.Column = stmt.Action.NewName
			}
		}
		return nil

	default:
		return errf("unsupported ALTER TABLE action %q", stmt.Action.ActionType)
	}
}

// CreateIndex builds a secondary index over one column of an existing table.
func (d *Database) CreateIndex(stmt *ast.CreateIndexStatement) error {
	table, ok := d.GetTable(stmt.Table)
	if !ok {
		return errf("table '%s' does not exist", stmt.Table)
	}
	key := strings.ToLower(stmt.IndexName)
	if _, exists := table.Indexes[key]; exists {
		if stmt.IfNotExists {
			return nil
		}
		return errf("index '%s' already exists", stmt.IndexName)
	}
	if len(stmt.Columns) != 1 {
		return errf("composite indexes are not supported")
	}
	column := stmt.Columns[0]
	colPos := table.ColumnIndex(column)
	if colPos < 0 {
		return errf("column '%s' does not exist in table '%s'", column, table.Name)
	}

	idx := NewIndex(stmt.IndexName, stmt.Table, column, stmt.Unique)
	for pos, row := range table.Rows {
		idx.Insert(row[colPos], pos)
	}
	table.Indexes[key] = idx
	return nil
}

// DropIndex removes a named index from whichever table holds it.
func (d *Database) DropIndex(name string, ifExists bool) error {
	key := strings.ToLower(name)
	for _, table := range d.Tables {
		if _, ok := table.Indexes[key]; ok {
			delete(table.Indexes, key)
			return nil
		}
	}
	if ifExists {
		return nil
	}
	return errf("index '%s' does not exist", name)
}

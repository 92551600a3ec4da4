package executor

import (
	"fmt"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/eval"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// ExecuteInsert evaluates every value tuple of an INSERT and appends the
// resulting rows to the target table, returning the count inserted.
func (ex *Executor) ExecuteInsert(stmt *ast.InsertStatement) (int, error) {
	table, ok := ex.db.GetTable(stmt.Table)
	if !ok {
		return 0, fmt.Errorf("table '%s' does not exist", stmt.Table)
	}

	positions, err := targetPositions(table, stmt.Columns)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, tuple := range stmt.Rows {
		row := defaultRow(table)
		if len(tuple) != len(positions) {
			return inserted, fmt.Errorf("INSERT has %d columns but %d values were supplied", len(positions), len(tuple))
		}
		for i, expr := range tuple {
			v, err := eval.Eval(&eval.Context{Runner: ex}, expr)
			if err != nil {
				return inserted, err
			}
			row[positions[i]] = v
		}
		if _, err := ex.db.InsertRow(table, row); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func targetPositions(table *catalog.Table, columns []string) ([]int, error) {
	if len(columns) == 0 {
		positions := make([]int, len(table.Columns))
		for i := range table.Columns {
			positions[i] = i
		}
		return positions, nil
	}
	positions := make([]int, len(columns))
	for i, name := range columns {
		pos := table.ColumnIndex(name)
		if pos < 0 {
			return nil, fmt.Errorf("column '%s' does not exist in table '%s'", name, table.Name)
		}
		positions[i] = pos
	}
	return positions, nil
}

func defaultRow(table *catalog.Table) []value.Value {
	row := make([]value.Value, len(table.Columns))
	for i, col := range table.Columns {
		if col.Default != nil {
			row[i] = *col.Default
		} else {
			row[i] = value.NewNull()
		}
	}
	return row
}

// ExecuteUpdate evaluates the SET assignments (and WHERE predicate) of an
// UPDATE against every matching row, returning the count affected.
func (ex *Executor) ExecuteUpdate(stmt *ast.UpdateStatement) (int, error) {
	table, ok := ex.db.GetTable(stmt.Table)
	if !ok {
		return 0, fmt.Errorf("table '%s' does not exist", stmt.Table)
	}

	assignPos := make([]int, len(stmt.Assignments))
	for i, a := range stmt.Assignments {
		pos := table.ColumnIndex(a.Column)
		if pos < 0 {
			return 0, fmt.Errorf("column '%s' does not exist in table '%s'", a.Column, table.Name)
		}
		assignPos[i] = pos
	}

	matching, err := ex.matchingPositions(table, stmt.Where)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, pos := range matching {
		newRow := append([]value.Value(nil), table.Rows[pos]...)
		rowCtx := rowFromTable(table, newRow)
		for i, a := range stmt.Assignments {
			v, err := eval.Eval(&eval.Context{Row: rowCtx, Runner: ex}, a.Value)
			if err != nil {
				return updated, err
			}
			newRow[assignPos[i]] = v
		}
		if err := ex.db.UpdateRow(table, pos, newRow); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// ExecuteDelete removes every row matching the WHERE predicate (or every
// row, if there is none), returning the count removed.
func (ex *Executor) ExecuteDelete(stmt *ast.DeleteStatement) (int, error) {
	table, ok := ex.db.GetTable(stmt.Table)
	if !ok {
		return 0, fmt.Errorf("table '%s' does not exist", stmt.Table)
	}

	matching, err := ex.matchingPositions(table, stmt.Where)
	if err != nil {
		return 0, err
	}

	deleted := 0
	// Highest position first: DeleteRow compacts positions above the one
	// removed, so deleting top-down keeps the remaining indices valid.
	for i := len(matching) - 1; i >= 0; i-- {
		if err := ex.db.DeleteRow(table, matching[i]); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (ex *Executor) matchingPositions(table *catalog.Table, where ast.Expression) ([]int, error) {
	var out []int
	for pos, row := range table.Rows {
		if where == nil {
			out = append(out, pos)
			continue
		}
		ctx := &eval.Context{Row: rowFromTable(table, row), Runner: ex}
		ok, err := eval.Matches(ctx, where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, pos)
		}
	}
	return out, nil
}

func rowFromTable(table *catalog.Table, values []value.Value) *eval.Row {
	columns := make([]string, len(table.Columns))
	tables := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = c.Name
		tables[i] = table.Name
	}
	return &eval.Row{Tables: tables, Columns: columns, Values: values}
}

// ExecuteDDL dispatches CREATE/DROP/ALTER TABLE and CREATE/DROP INDEX
// statements directly to the catalog.
func (ex *Executor) ExecuteDDL(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.CreateTableStatement:
		return ex.db.CreateTable(s)
	case *ast.DropTableStatement:
		return ex.db.DropTable(s.Table, s.IfExists)
	case *ast.AlterTableStatement:
		return ex.db.AlterTable(s)
	case *ast.CreateIndexStatement:
		return ex.db.CreateIndex(s)
	case *ast.DropIndexStatement:
		return ex.db.DropIndex(s.IndexName, s.IfExists)
	default:
		return fmt.Errorf("executor: unsupported DDL statement %T", stmt)
	}
}

package catalog

import (
	"strings"

	"github.com/Chahine-tech/rowql/pkg/value"
)

// validateRow checks invariants I1 (row width) and I2 (type conformance)
// for a row about to be inserted or for a replacement row about to be
// written in place of an existing one.
func (t *Table) validateRow(row []value.Value) error {
	if len(row) != len(t.Columns) {
		return errf("column count mismatch: table '%s' has %d columns, got %d values", t.Name, len(t.Columns), len(row))
	}
	for i, col := range t.Columns {
		v := row[i]
		if v.IsNull() {
			if col.NotNull {
				return errf("column '%s' does not allow NULL", col.Name)
			}
			continue
		}
		if !kindConforms(v.Kind(), col.DataType) {
			return errf("value for column '%s' is not of type %s", col.Name, col.DataType)
		}
	}
	return nil
}

func kindConforms(vk, ck value.Kind) bool {
	if vk == ck {
		return true
	}
	// Integer literals are accepted for Float columns and vice versa,
	// matching the engine's numeric cross-promotion in comparisons.
	if (vk == value.Integer || vk == value.Float) && (ck == value.Integer || ck == value.Float) {
		return true
	}
	return false
}

// checkUniqueConstraints validates invariants I3 (primary key) and I4
// (unique) against every row in the table except skipPos (used by
// UpdateRow to exclude the row being replaced from its own check).
func (t *Table) checkUniqueConstraints(row []value.Value, skipPos int) error {
	for i, col := range t.Columns {
		if !col.PrimaryKey && !col.Unique {
			continue
		}
		v := row[i]
		if v.IsNull() {
			continue // UNIQUE permits multiple NULLs; PRIMARY KEY already rejects NULL above.
		}
		for pos, existing := range t.Rows {
			if pos == skipPos {
				continue
			}
			if value.Equal(existing[i], v) {
				if col.PrimaryKey {
					return errf("duplicate primary key value for column '%s'", col.Name)
				}
				return errf("duplicate value for unique column '%s'", col.Name)
			}
		}
	}
	return nil
}

// checkForeignKeys validates invariant I5: every non-null FK value must
// match some row's value in the referenced column of the referenced table.
func (d *Database) checkForeignKeys(t *Table, row []value.Value) error {
	for i, col := range t.Columns {
		if col.References == nil {
			continue
		}
		v := row[i]
		if v.IsNull() {
			continue
		}
		refTable, ok := d.GetTable(col.References.Table)
		if !ok {
			return errf("foreign key constraint violation: referenced table '%s' does not exist", col.References.Table)
		}
		refPos := refTable.ColumnIndex(col.References.Column)
		if refPos < 0 {
			return errf("foreign key constraint violation: referenced column '%s.%s' does not exist", col.References.Table, col.References.Column)
		}
		found := false
		for _, refRow := range refTable.Rows {
			if value.Equal(refRow[refPos], v) {
				found = true
				break
			}
		}
		if !found {
			return errf("foreign key constraint violation: value for column '%s' has no match in '%s.%s'",
				col.Name, col.References.Table, col.References.Column)
		}
	}
	return nil
}

// InsertRow appends row to table after validating every invariant, then
// maintains every secondary index over the table.
func (d *Database) InsertRow(t *Table, row []value.Value) (int, error) {
	if err := t.validateRow(row); err != nil {
		return -1, err
	}
	if err := t.checkUniqueConstraints(row, -1); err != nil {
		return -1, err
	}
	if err := d.checkForeignKeys(t, row); err != nil {
		return -1, err
	}

	pos := len(t.Rows)
	t.Rows = append(t.Rows, row)
	for _, idx := range t.Indexes {
		colPos := t.ColumnIndex(idx.Column)
		idx.Insert(row[colPos], pos)
	}
	return pos, nil
}

// UpdateRow replaces the row at pos with newRow, re-validating every
// invariant and re-keying every secondary index.
func (d *Database) UpdateRow(t *Table, pos int, newRow []value.Value) error {
	if err := t.validateRow(newRow); err != nil {
		return err
	}
	if err := t.checkUniqueConstraints(newRow, pos); err != nil {
		return err
	}
	if err := d.checkForeignKeys(t, newRow); err != nil {
		return err
	}

	oldRow := t.Rows[pos]
	t.Rows[pos] = newRow
	for _, idx := range t.Indexes {
		colPos := t.ColumnIndex(idx.Column)
		idx.Remove(oldRow[colPos], pos)
		idx.Insert(newRow[colPos], pos)
	}

	return d.propagateKeyChange(t, oldRow, newRow)
}

// DeleteRow removes the row at pos from table, fanning the deletion out
// to any foreign key referencing it (CASCADE/RESTRICT/SET NULL/NO ACTION)
// before compacting the table's row positions and every index's postings.
func (d *Database) DeleteRow(t *Table, pos int) error {
	row := t.Rows[pos]

	if err := d.enforceDeleteReferences(t, row); err != nil {
		return err
	}

	t.Rows = append(t.Rows[:pos], t.Rows[pos+1:]...)
	for _, idx := range t.Indexes {
		colPos := t.ColumnIndex(idx.Column)
		idx.Remove(row[colPos], pos)
		idx.DecrementPositionsAbove(pos)
	}
	return nil
}

// childReference describes one foreign key in another table that points
// back at t.
type childReference struct {
	childTable *Table
	childCol   *Column
	childPos   int
}

func (d *Database) findChildReferences(t *Table) []childReference {
	var refs []childReference
	for _, other := range d.Tables {
		for i, col := range other.Columns {
			if col.References != nil && strings.EqualFold(col.References.Table, t.Name) {
				refs = append(refs, childReference{childTable: other, childCol: col, childPos: i})
			}
		}
	}
	return refs
}

// enforceDeleteReferences applies FK actions for every child row that
// references the row about to be deleted, by its referenced-column value.
func (d *Database) enforceDeleteReferences(t *Table, row []value.Value) error {
	refs := d.findChildReferences(t)
	if len(refs) == 0 {
		return nil
	}

	for _, ref := range refs {
		refColPos := t.ColumnIndex(ref.childCol.References.Column)
		if refColPos < 0 {
			continue
		}
		key := row[refColPos]
		if key.IsNull() {
			continue
		}

		matching := matchingPositions(ref.childTable, ref.childPos, key)
		if len(matching) == 0 {
			continue
		}

		action := strings.ToUpper(ref.childCol.References.OnDelete)
		switch action {
		case "CASCADE":
			// Delete highest position first so lower positions stay valid.
			for i := len(matching) - 1; i >= 0; i-- {
				if err := d.DeleteRow(ref.childTable, matching[i]); err != nil {
					return err
				}
			}
		case "SET NULL":
			for _, childPos := range matching {
				newRow := append([]value.Value(nil), ref.childTable.Rows[childPos]...)
				newRow[ref.childPos] = value.NewNull()
				if err := d.UpdateRow(ref.childTable, childPos, newRow); err != nil {
					return err
				}
			}
		case "NO ACTION", "":
			return errf("foreign key constraint violation: table '%s' has rows referencing '%s'", ref.childTable.Name, t.Name)
		default: // RESTRICT
			return errf("foreign key constraint violation: table '%s' has rows referencing '%s'", ref.childTable.Name, t.Name)
		}
	}
	return nil
}

// propagateKeyChange re-validates referencing children when an UPDATE
// changes the value a foreign key depends on, applying ON UPDATE CASCADE
// where configured and rejecting the update otherwise.
func (d *Database) propagateKeyChange(t *Table, oldRow, newRow []value.Value) error {
	refs := d.findChildReferences(t)
	for _, ref := range refs {
		refColPos := t.ColumnIndex(ref.childCol.References.Column)
		if refColPos < 0 {
			continue
		}
		if value.Equal(oldRow[refColPos], newRow[refColPos]) {
			continue
		}
		matching := matchingPositions(ref.childTable, ref.childPos, oldRow[refColPos])
		if len(matching) == 0 {
			continue
		}
		action := strings.ToUpper(ref.childCol.References.OnUpdate)
		switch action {
		case "CASCADE":
			for _, childPos := range matching {
				childRow := append([]value.Value(nil), ref.childTable.Rows[childPos]...)
				childRow[ref.childPos] = newRow[refColPos]
				if err := d.UpdateRow(ref.childTable, childPos, childRow); err != nil {
					return err
				}
			}
		case "SET NULL":
			for _, childPos := range matching {
				childRow := append([]value.Value(nil), ref.childTable.Rows[childPos]...)
				childRow[ref.childPos] = value.NewNull()
				if err := d.UpdateRow(ref.childTable, childPos, childRow); err != nil {
					return err
				}
			}
		default:
			return errf("foreign key constraint violation: table '%s' has rows referencing the updated key", ref.childTable.Name)
		}
	}
	return nil
}

func matchingPositions(t *Table, colPos int, key value.Value) []int {
	var out []int
	for pos, row := range t.Rows {
		if value.Equal(row[colPos], key) {
			out = append(out, pos)
		}
	}
	return out
}

package storage

import (
	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// kindTypeName maps a value.Kind back to the canonical type keyword the
// catalog's dataTypeKind parses, so a reloaded column definition type-checks
// identically to one parsed fresh from a CREATE TABLE statement.
func kindTypeName(k value.Kind) string {
	switch k {
	case value.Integer:
		return "INTEGER"
	case value.Float:
		return "FLOAT"
	case value.Text:
		return "TEXT"
	case value.Boolean:
		return "BOOLEAN"
	case value.Date:
		return "DATE"
	case value.Time:
		return "TIME"
	case value.DateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func tableDTOToStatement(td tableDTO) *ast.CreateTableStatement {
	stmt := &ast.CreateTableStatement{Table: td.Name}
	for _, cd := range td.Columns {
		colDef := &ast.ColumnDefinition{
			Name:       cd.Name,
			DataType:   kindTypeName(value.Kind(cd.DataType)),
			NotNull:    cd.NotNull,
			PrimaryKey: cd.PrimaryKey,
			Unique:     cd.Unique,
		}
		if cd.Default != nil {
			colDef.Default = &ast.Literal{Value: fromValueDTO(*cd.Default)}
		}
		if cd.References != nil {
			colDef.References = &ast.ForeignKeyReference{
				Table:    cd.References.Table,
				Columns:  []string{cd.References.Column},
				OnDelete: cd.References.OnDelete,
				OnUpdate: cd.References.OnUpdate,
			}
		}
		stmt.Columns = append(stmt.Columns, colDef)
	}
	return stmt
}

// orderByForeignKeys topologically sorts tables so that any table a
// foreign key references is created before the table holding it,
// falling back to appending whatever remains (e.g. on a cycle) so a
// snapshot is never silently dropped.
func orderByForeignKeys(tables []tableDTO) []tableDTO {
	byName := make(map[string]tableDTO, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	var ordered []tableDTO
	placed := make(map[string]bool, len(tables))

	var visit func(name string, visiting map[string]bool)
	visit = func(name string, visiting map[string]bool) {
		if placed[name] || visiting[name] {
			return
		}
		t, ok := byName[name]
		if !ok {
			return
		}
		visiting[name] = true
		for _, col := range t.Columns {
			if col.References != nil {
				visit(col.References.Table, visiting)
			}
		}
		delete(visiting, name)
		if !placed[name] {
			placed[name] = true
			ordered = append(ordered, t)
		}
	}

	for _, t := range tables {
		visit(t.Name, map[string]bool{})
	}
	return ordered
}

func indexDTOToStatement(table string, idx indexDTO) *ast.CreateIndexStatement {
	return &ast.CreateIndexStatement{
		IndexName: idx.Name,
		Table:     table,
		Columns:   []string{idx.Column},
		Unique:    idx.Unique,
	}
}

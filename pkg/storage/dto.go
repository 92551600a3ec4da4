package storage

import (
	"encoding/json"
	"fmt"

	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// valueDTO is the wire form of a value.Value: its Kind plus whichever
// single field actually holds the payload for that kind. value.Value's
// fields are private, so round-tripping through JSON needs this shim.
type valueDTO struct {
	Kind int     `json:"kind"`
	I    int64   `json:"i,omitempty"`
	F    float64 `json:"f,omitempty"`
	S    string  `json:"s,omitempty"`
	B    bool    `json:"b,omitempty"`
}

func toValueDTO(v value.Value) valueDTO {
	dto := valueDTO{Kind: int(v.Kind())}
	switch v.Kind() {
	case value.Integer:
		dto.I = v.Integer()
	case value.Float:
		dto.F = v.Float()
	case value.Text, value.Date, value.Time, value.DateTime:
		dto.S = v.Text()
	case value.Boolean:
		dto.B = v.Boolean()
	}
	return dto
}

func fromValueDTO(dto valueDTO) value.Value {
	switch value.Kind(dto.Kind) {
	case value.Integer:
		return value.NewInteger(dto.I)
	case value.Float:
		return value.NewFloat(dto.F)
	case value.Text:
		return value.NewText(dto.S)
	case value.Boolean:
		return value.NewBoolean(dto.B)
	case value.Date:
		return value.NewDate(dto.S)
	case value.Time:
		return value.NewTime(dto.S)
	case value.DateTime:
		return value.NewDateTime(dto.S)
	default:
		return value.NewNull()
	}
}

type foreignKeyDTO struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	OnDelete string `json:"on_delete,omitempty"`
	OnUpdate string `json:"on_update,omitempty"`
}

type columnDTO struct {
	Name       string         `json:"name"`
	DataType   int            `json:"data_type"`
	NotNull    bool           `json:"not_null,omitempty"`
	PrimaryKey bool           `json:"primary_key,omitempty"`
	Unique     bool           `json:"unique,omitempty"`
	Default    *valueDTO      `json:"default,omitempty"`
	References *foreignKeyDTO `json:"references,omitempty"`
}

type indexDTO struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Unique bool   `json:"unique,omitempty"`
}

type tableDTO struct {
	Name    string        `json:"name"`
	Columns []columnDTO   `json:"columns"`
	Rows    [][]valueDTO  `json:"rows"`
	Indexes []indexDTO    `json:"indexes,omitempty"`
}

// databaseDTO is the on-disk snapshot shape: a flat list of tables, written
// in map-iteration order. That order is not significant: decodeDatabase
// replays tables in foreign-key dependency order.
type databaseDTO struct {
	Tables []tableDTO `json:"tables"`
}

func encodeDatabase(db *catalog.Database) databaseDTO {
	var dto databaseDTO
	for _, name := range db.TableNames() {
		table, _ := db.GetTable(name)
		td := tableDTO{Name: table.Name}
		for _, col := range table.Columns {
			cd := columnDTO{
				Name:       col.Name,
				DataType:   int(col.DataType),
				NotNull:    col.NotNull,
				PrimaryKey: col.PrimaryKey,
				Unique:     col.Unique,
			}
			if col.Default != nil {
				v := toValueDTO(*col.Default)
				cd.Default = &v
			}
			if col.References != nil {
				cd.References = &foreignKeyDTO{
					Table:    col.References.Table,
					Column:   col.References.Column,
					OnDelete: col.References.OnDelete,
					OnUpdate: col.References.OnUpdate,
				}
			}
			td.Columns = append(td.Columns, cd)
		}
		for _, row := range table.Rows {
			rd := make([]valueDTO, len(row))
			for i, v := range row {
				rd[i] = toValueDTO(v)
			}
			td.Rows = append(td.Rows, rd)
		}
		for _, idx := range table.Indexes {
			td.Indexes = append(td.Indexes, indexDTO{Name: idx.Name, Column: idx.Column, Unique: idx.Unique})
		}
		dto.Tables = append(dto.Tables, td)
	}
	return dto
}

// decodeDatabase rebuilds a live *catalog.Database from its DTO form by
// replaying CreateTable/InsertRow/CreateIndex through the catalog's own
// API, so every invariant (NOT NULL, uniqueness, foreign keys) is
// re-validated exactly as it would be for a freshly typed statement.
func decodeDatabase(dto databaseDTO) (*catalog.Database, error) {
	db := catalog.NewDatabase()

	ordered := orderByForeignKeys(dto.Tables)
	for _, td := range ordered {
		if err := db.CreateTable(tableDTOToStatement(td)); err != nil {
			return nil, fmt.Errorf("storage: rebuilding table %q: %w", td.Name, err)
		}
	}

	// Parent rows must exist before child rows pass the foreign key check.
	for _, td := range ordered {
		table, ok := db.GetTable(td.Name)
		if !ok {
			continue
		}
		for _, rd := range td.Rows {
			row := make([]value.Value, len(rd))
			for i, v := range rd {
				row[i] = fromValueDTO(v)
			}
			if _, err := db.InsertRow(table, row); err != nil {
				return nil, fmt.Errorf("storage: rebuilding rows of %q: %w", td.Name, err)
			}
		}
		for _, idx := range td.Indexes {
			if err := db.CreateIndex(indexDTOToStatement(td.Name, idx)); err != nil {
				return nil, fmt.Errorf("storage: rebuilding index %q: %w", idx.Name, err)
			}
		}
	}

	return db, nil
}

func marshalDatabase(db *catalog.Database) ([]byte, error) {
	return json.MarshalIndent(encodeDatabase(db), "", "  ")
}

func unmarshalDatabase(data []byte) (*catalog.Database, error) {
	var dto databaseDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("storage: parsing snapshot: %w", err)
	}
	return decodeDatabase(dto)
}

package planner

import (
	"testing"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/value"
)

func newUsersDB(t *testing.T, rows int) *catalog.Database {
	t.Helper()
	d := catalog.NewDatabase()
	stmt := &ast.CreateTableStatement{
		Table: "users",
		Columns: []*ast.ColumnDefinition{
			{Name: "id", DataType: "INTEGER", PrimaryKey: true},
			{Name: "age", DataType: "INTEGER"},
		},
	}
	if err := d.CreateTable(stmt); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	table, _ := d.GetTable("users")
	for i := 0; i < rows; i++ {
		if _, err := d.InsertRow(table, []value.Value{value.NewInteger(int64(i)), value.NewInteger(int64(20 + i%5))}); err != nil {
			t.Fatalf("InsertRow: %v", err)
		}
	}
	return d
}

func TestPlanSelectUsesSeqScanWithoutIndex(t *testing.T) {
	d := newUsersDB(t, 50)
	p := New(d)
	stmt := &ast.SelectStatement{
		Columns: []ast.SelectItem{{Star: true}},
		From:    &ast.TableReference{Name: "users"},
		Where: &ast.BinaryExpression{
			Left:     &ast.ColumnReference{Column: "age"},
			Operator: ast.OpEq,
			Right:    &ast.Literal{Value: value.NewInteger(21)},
		},
	}
	plan, err := p.PlanSelect(stmt)
	if err != nil {
		t.Fatalf("PlanSelect: %v", err)
	}
	// Project -> SeqScan with the WHERE inlined as its filter, since no
	// index exists on age yet.
	if plan.NodeType != Project {
		t.Fatalf("expected root Project node, got %s", plan.NodeType)
	}
	scan := plan.Children[0]
	if scan.ScanFilter != stmt.Where {
		t.Fatalf("expected WHERE inlined as the scan filter, got %v", scan.ScanFilter)
	}
	if scan.NodeType != SeqScan {
		t.Fatalf("expected SeqScan, got %s", scan.NodeType)
	}
}

func TestPlanSelectUsesIndexScanWhenAvailable(t *testing.T) {
	d := newUsersDB(t, 50)
	if err := d.CreateIndex(&ast.CreateIndexStatement{IndexName: "idx_age", Table: "users", Columns: []string{"age"}}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	p := New(d)
	stmt := &ast.SelectStatement{
		Columns: []ast.SelectItem{{Star: true}},
		From:    &ast.TableReference{Name: "users"},
		Where: &ast.BinaryExpression{
			Left:     &ast.ColumnReference{Column: "age"},
			Operator: ast.OpEq,
			Right:    &ast.Literal{Value: value.NewInteger(21)},
		},
	}
	plan, err := p.PlanSelect(stmt)
	if err != nil {
		t.Fatalf("PlanSelect: %v", err)
	}
	scan := plan.Children[0]
	if scan.NodeType != IndexScan {
		t.Fatalf("expected IndexScan when an index covers the predicate, got %s", scan.NodeType)
	}
	if scan.Index != "idx_age" {
		t.Fatalf("expected idx_age to be chosen, got %s", scan.Index)
	}
}

func TestEstimateSelectivityTable(t *testing.T) {
	eq := &ast.BinaryExpression{Operator: ast.OpEq}
	if s := estimateSelectivity(eq, 100); s != 0.1 {
		t.Fatalf("expected equality selectivity 0.1, got %v", s)
	}
	or := &ast.BinaryExpression{Operator: ast.OpOr}
	if s := estimateSelectivity(or, 100); s != 0.7 {
		t.Fatalf("expected OR selectivity 0.7, got %v", s)
	}
}

func TestPlanLimitClampsRows(t *testing.T) {
	d := newUsersDB(t, 10)
	p := New(d)
	limit := 3
	stmt := &ast.SelectStatement{
		Columns: []ast.SelectItem{{Star: true}},
		From:    &ast.TableReference{Name: "users"},
		Limit:   &limit,
	}
	plan, err := p.PlanSelect(stmt)
	if err != nil {
		t.Fatalf("PlanSelect: %v", err)
	}
	limitNode := plan.Children[0]
	if limitNode.NodeType != Limit {
		t.Fatalf("expected Limit node, got %s", limitNode.NodeType)
	}
	if limitNode.Rows != 3 {
		t.Fatalf("expected limit to clamp estimated rows to 3, got %d", limitNode.Rows)
	}
}

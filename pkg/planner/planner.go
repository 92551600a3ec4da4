package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// Planner builds a cost-estimated PlanNode tree for a SELECT statement
// against a fixed catalog snapshot.
type Planner struct {
	db *catalog.Database
}

func New(db *catalog.Database) *Planner {
	return &Planner{db: db}
}

// PlanSelect is the planner's single entry point: base table access,
// joins, the residual filter, grouping, sorting, limiting, and the final
// projection, in that order, matching how the engine evaluates a SELECT.
func (p *Planner) PlanSelect(stmt *ast.SelectStatement) (*PlanNode, error) {
	if stmt.From == nil {
		return nil, fmt.Errorf("SELECT without FROM is not supported")
	}

	baseTable, ok := p.db.GetTable(stmt.From.Name)
	if !ok {
		return nil, fmt.Errorf("table '%s' does not exist", stmt.From.Name)
	}

	plan, err := p.planTableAccess(stmt.From.Name, baseTable, stmt.Where)
	if err != nil {
		return nil, err
	}

	if len(stmt.Joins) > 0 {
		plan, err = p.planJoins(plan, stmt.Joins)
		if err != nil {
			return nil, err
		}
	}

	if stmt.Where != nil && !p.filterApplied(plan, stmt.Where) {
		plan = p.planFilter(plan, stmt.Where)
	}

	aggregates := collectAggregates(stmt.Columns)
	if len(stmt.GroupBy) > 0 || len(aggregates) > 0 {
		plan = p.planAggregate(plan, stmt.GroupBy, aggregates, stmt.Having)
	}

	if len(stmt.OrderBy) > 0 {
		plan = p.planSort(plan, stmt.OrderBy)
	}

	if stmt.Limit != nil || stmt.Offset != nil {
		limit := -1
		if stmt.Limit != nil {
			limit = *stmt.Limit
		}
		offset := 0
		if stmt.Offset != nil {
			offset = *stmt.Offset
		}
		plan = p.planLimit(plan, limit, offset)
	}

	plan = p.planProject(plan, stmt.Columns)

	if stmt.Distinct {
		plan = &PlanNode{NodeType: Distinct, Children: []*PlanNode{plan}, Cost: plan.Cost + float64(plan.Rows)*0.2, Rows: plan.Rows}
	}

	if stmt.Union != nil {
		rightPlan, err := p.PlanSelect(stmt.Union)
		if err != nil {
			return nil, err
		}
		plan = &PlanNode{
			NodeType: Union,
			Children: []*PlanNode{plan, rightPlan},
			UnionAll: stmt.UnionAll,
			Cost:     plan.Cost + rightPlan.Cost,
			Rows:     plan.Rows + rightPlan.Rows,
		}
	}

	return plan, nil
}

func collectAggregates(items []ast.SelectItem) []*ast.FunctionCall {
	var out []*ast.FunctionCall
	for _, item := range items {
		if fc, ok := item.Expr.(*ast.FunctionCall); ok {
			out = append(out, fc)
		}
	}
	return out
}

func (p *Planner) planTableAccess(tableName string, table *catalog.Table, where ast.Expression) (*PlanNode, error) {
	rowCount := len(table.Rows)

	if where != nil {
		if usage := findBestIndex(tableName, where, table); usage != nil {
			selected := p.estimateIndexSelectivity(usage, table, rowCount)
			cost := estimateIndexScanCost(rowCount, selected)
			return &PlanNode{
				NodeType:   IndexScan,
				Table:      tableName,
				Index:      usage.indexName,
				Operation:  usage.toOperation(),
				ScanFilter: where,
				Cost:       cost,
				Rows:       selected,
			}, nil
		}
	}

	return &PlanNode{
		NodeType:   SeqScan,
		Table:      tableName,
		ScanFilter: where,
		Cost:       estimateSeqScanCost(rowCount),
		Rows:       rowCount,
	}, nil
}

func (p *Planner) planJoins(left *PlanNode, joins []ast.JoinClause) (*PlanNode, error) {
	ordered := append([]ast.JoinClause(nil), joins...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return p.tableRowCount(ordered[i].Table.Name) < p.tableRowCount(ordered[j].Table.Name)
	})

	current := left
	for _, join := range ordered {
		rightTable, ok := p.db.GetTable(join.Table.Name)
		if !ok {
			return nil, fmt.Errorf("table '%s' does not exist", join.Table.Name)
		}
		rightPlan, err := p.planTableAccess(join.Table.Name, rightTable, nil)
		if err != nil {
			return nil, err
		}

		equality := isEqualityJoin(join.Condition)
		leftRows, rightRows := current.Rows, rightPlan.Rows
		outRows := estimateJoinRows(leftRows, rightRows, equality)

		if equality {
			cost := estimateHashJoinCost(current.Cost, rightPlan.Cost, leftRows, rightRows)
			current = &PlanNode{
				NodeType:  HashJoin,
				Children:  []*PlanNode{current, rightPlan},
				Condition: join.Condition,
				Cost:      cost,
				Rows:      outRows,
			}
		} else {
			cost := estimateNestedLoopJoinCost(current.Cost, rightPlan.Cost, leftRows, rightRows)
			current = &PlanNode{
				NodeType:  NestedLoopJoin,
				Children:  []*PlanNode{current, rightPlan},
				Condition: join.Condition,
				Cost:      cost,
				Rows:      outRows,
			}
		}
	}
	return current, nil
}

func (p *Planner) tableRowCount(name string) int {
	if t, ok := p.db.GetTable(name); ok {
		return len(t.Rows)
	}
	return 0
}

func (p *Planner) planFilter(input *PlanNode, cond ast.Expression) *PlanNode {
	selectivity := estimateSelectivity(cond, input.Rows)
	filteredRows := int(float64(input.Rows) * selectivity)
	return &PlanNode{
		NodeType:  Filter,
		Children:  []*PlanNode{input},
		Condition: cond,
		Cost:      input.Cost + estimateFilterCost(input.Rows),
		Rows:      filteredRows,
	}
}

func (p *Planner) planSort(input *PlanNode, orderBy []ast.OrderByItem) *PlanNode {
	return &PlanNode{
		NodeType: Sort,
		Children: []*PlanNode{input},
		OrderBy:  orderBy,
		Cost:     input.Cost + estimateSortCost(input.Rows),
		Rows:     input.Rows,
	}
}

func (p *Planner) planLimit(input *PlanNode, limit, offset int) *PlanNode {
	outRows := input.Rows - offset
	if outRows < 0 {
		outRows = 0
	}
	if limit >= 0 && outRows > limit {
		outRows = limit
	}
	extra := 0
	if limit >= 0 {
		extra = limit
	}
	return &PlanNode{
		NodeType: Limit,
		Children: []*PlanNode{input},
		LimitN:   limit,
		Offset:   offset,
		Cost:     input.Cost + float64(offset+extra)*0.01,
		Rows:     outRows,
	}
}

func (p *Planner) planAggregate(input *PlanNode, groupBy []ast.Expression, aggregates []*ast.FunctionCall, having ast.Expression) *PlanNode {
	outRows := int(float64(input.Rows) * 0.1)
	if outRows < 1 {
		outRows = 1
	}
	return &PlanNode{
		NodeType:   Aggregate,
		Children:   []*PlanNode{input},
		GroupBy:    groupBy,
		Aggregates: aggregates,
		Having:     having,
		Cost:       input.Cost + estimateAggregateCost(input.Rows, len(groupBy), len(aggregates)),
		Rows:       outRows,
	}
}

func (p *Planner) planProject(input *PlanNode, columns []ast.SelectItem) *PlanNode {
	return &PlanNode{
		NodeType: Project,
		Children: []*PlanNode{input},
		Columns:  columns,
		Cost:     input.Cost,
		Rows:     input.Rows,
	}
}

func (p *Planner) filterApplied(plan *PlanNode, filter ast.Expression) bool {
	switch plan.NodeType {
	case SeqScan, IndexScan:
		return plan.ScanFilter == filter
	case Filter:
		return plan.Condition == filter
	}
	return false
}

type indexUsage struct {
	indexName string
	column    string
	op        string // "eq", "range", "in"
	value     value.Value
	values    []value.Value
	min       *value.Value
	minIncl   bool
	max       *value.Value
	maxIncl   bool
}

// toOperation converts the usage the planner matched into the
// IndexOperation the executor narrows its index scan with.
func (u *indexUsage) toOperation() *IndexOperation {
	switch u.op {
	case "eq":
		return &IndexOperation{Kind: IndexEq, Value: u.value}
	case "in":
		return &IndexOperation{Kind: IndexIn, Values: u.values}
	case "range":
		return &IndexOperation{Kind: IndexRange, Min: u.min, MinIncl: u.minIncl, Max: u.max, MaxIncl: u.maxIncl}
	}
	return nil
}

// findBestIndex looks for a single-column index over a column mentioned
// by name in a top-level comparison or IN predicate of where. It does
// not descend into AND/OR combinations, matching the donor planner's
// narrow index-usage detection.
func findBestIndex(tableName string, where ast.Expression, table *catalog.Table) *indexUsage {
	switch e := where.(type) {
	case *ast.BinaryExpression:
		col, ok := e.Left.(*ast.ColumnReference)
		if !ok {
			return nil
		}
		lit, ok := e.Right.(*ast.Literal)
		if !ok {
			return nil
		}
		idx := findIndexOnColumn(table, col.Column)
		if idx == nil {
			return nil
		}
		switch e.Operator {
		case ast.OpEq:
			return &indexUsage{indexName: idx.Name, column: col.Column, op: "eq", value: lit.Value}
		case ast.OpGt:
			v := lit.Value
			return &indexUsage{indexName: idx.Name, column: col.Column, op: "range", min: &v, minIncl: false}
		case ast.OpGte:
			v := lit.Value
			return &indexUsage{indexName: idx.Name, column: col.Column, op: "range", min: &v, minIncl: true}
		case ast.OpLt:
			v := lit.Value
			return &indexUsage{indexName: idx.Name, column: col.Column, op: "range", max: &v, maxIncl: false}
		case ast.OpLte:
			v := lit.Value
			return &indexUsage{indexName: idx.Name, column: col.Column, op: "range", max: &v, maxIncl: true}
		}
		return nil

	case *ast.InExpression:
		col, ok := e.Left.(*ast.ColumnReference)
		if !ok || e.Subquery != nil {
			return nil
		}
		idx := findIndexOnColumn(table, col.Column)
		if idx == nil {
			return nil
		}
		vals := make([]value.Value, 0, len(e.Values))
		for _, ve := range e.Values {
			if lit, ok := ve.(*ast.Literal); ok {
				vals = append(vals, lit.Value)
			}
		}
		return &indexUsage{indexName: idx.Name, column: col.Column, op: "in", values: vals}
	}
	return nil
}

func findIndexOnColumn(table *catalog.Table, column string) *catalog.Index {
	for _, idx := range table.Indexes {
		if strings.EqualFold(idx.Column, column) {
			return idx
		}
	}
	return nil
}

func (p *Planner) estimateIndexSelectivity(usage *indexUsage, table *catalog.Table, rowCount int) int {
	idx := table.Indexes[strings.ToLower(usage.indexName)]
	if idx == nil {
		return rowCount
	}
	switch usage.op {
	case "eq":
		return len(idx.Lookup(usage.value))
	case "range":
		return len(idx.Range(usage.min, usage.minIncl, usage.max, usage.maxIncl))
	case "in":
		total := 0
		for _, v := range usage.values {
			total += len(idx.Lookup(v))
		}
		return total
	default:
		return rowCount
	}
}

func isEqualityJoin(cond ast.Expression) bool {
	if b, ok := cond.(*ast.BinaryExpression); ok {
		return b.Operator == ast.OpEq
	}
	return false
}

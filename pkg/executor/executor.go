// Package executor walks a planner.PlanNode tree and produces rows,
// wiring pkg/eval into every scan, filter, join, sort, and aggregate
// step instead of the always-true placeholder a first cut might use.
package executor

import (
	"fmt"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/eval"
	"github.com/Chahine-tech/rowql/pkg/planner"
)

// Executor runs SELECTs (via a cost-based plan) and DML/DDL statements
// directly against a catalog.Database.
type Executor struct {
	db *catalog.Database
}

func New(db *catalog.Database) *Executor {
	return &Executor{db: db}
}

// Execute plans and runs a top-level SELECT statement.
func (ex *Executor) Execute(stmt *ast.SelectStatement) (*eval.Result, error) {
	return ex.RunSelect(stmt, nil)
}

// RunSelect implements eval.QueryRunner so correlated and scalar
// subqueries route back through the same planner and executor as any
// top-level query, with outer supplying the enclosing row for correlation.
func (ex *Executor) RunSelect(stmt *ast.SelectStatement, outer *eval.Context) (*eval.Result, error) {
	p := planner.New(ex.db)
	plan, err := p.PlanSelect(stmt)
	if err != nil {
		return nil, err
	}
	return ex.runPlan(plan, stmt, outer)
}

// Plan exposes the planner output for EXPLAIN without executing it.
func (ex *Executor) Plan(stmt *ast.SelectStatement) (*planner.PlanNode, error) {
	return planner.New(ex.db).PlanSelect(stmt)
}

func (ex *Executor) runPlan(plan *planner.PlanNode, stmt *ast.SelectStatement, outer *eval.Context) (*eval.Result, error) {
	rows, err := ex.executeNode(plan, outer)
	if err != nil {
		return nil, err
	}
	return toResult(rows), nil
}

func toResult(rows []*eval.Row) *eval.Result {
	res := &eval.Result{}
	if len(rows) > 0 {
		res.Columns = rows[0].Columns
	}
	for _, r := range rows {
		res.Rows = append(res.Rows, r.Values)
	}
	return res
}

// executeNode dispatches one plan node, recursing into its children.
func (ex *Executor) executeNode(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	switch n.NodeType {
	case planner.SeqScan:
		return ex.execSeqScan(n, outer)
	case planner.IndexScan:
		return ex.execIndexScan(n, outer)
	case planner.Filter:
		return ex.execFilter(n, outer)
	case planner.NestedLoopJoin:
		return ex.execNestedLoopJoin(n, outer)
	case planner.HashJoin:
		return ex.execHashJoin(n, outer)
	case planner.Sort:
		return ex.execSort(n, outer)
	case planner.Limit:
		return ex.execLimit(n, outer)
	case planner.Aggregate:
		return ex.execAggregate(n, outer)
	case planner.Project:
		return ex.execProject(n, outer)
	case planner.Distinct:
		return ex.execDistinct(n, outer)
	case planner.Union:
		return ex.execUnion(n, outer)
	default:
		return nil, fmt.Errorf("executor: unknown plan node %s", n.NodeType)
	}
}

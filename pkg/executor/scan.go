package executor

import (
	"fmt"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/eval"
	"github.com/Chahine-tech/rowql/pkg/planner"
	"github.com/Chahine-tech/rowql/pkg/value"
)

func (ex *Executor) baseRows(tableName string) ([]*eval.Row, error) {
	table, ok := ex.db.GetTable(tableName)
	if !ok {
		return nil, fmt.Errorf("table '%s' does not exist", tableName)
	}
	columns := make([]string, len(table.Columns))
	tables := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = c.Name
		tables[i] = tableName
	}
	rows := make([]*eval.Row, 0, len(table.Rows))
	for _, r := range table.Rows {
		rows = append(rows, &eval.Row{
			Tables:  append([]string(nil), tables...),
			Columns: append([]string(nil), columns...),
			Values:  append([]value.Value(nil), r...),
		})
	}
	return rows, nil
}

func (ex *Executor) execSeqScan(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	rows, err := ex.baseRows(n.Table)
	if err != nil {
		return nil, err
	}
	return ex.filterRows(rows, n.ScanFilter, outer)
}

func (ex *Executor) execIndexScan(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	table, ok := ex.db.GetTable(n.Table)
	if !ok {
		return nil, fmt.Errorf("table '%s' does not exist", n.Table)
	}
	idx, ok := table.Indexes[strings.ToLower(n.Index)]
	if !ok {
		return nil, fmt.Errorf("index '%s' does not exist", n.Index)
	}

	positions := positionsForOperation(idx, n.Operation)
	columns := make([]string, len(table.Columns))
	tables := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = c.Name
		tables[i] = n.Table
	}

	rows := make([]*eval.Row, 0, len(positions))
	for _, pos := range positions {
		if pos >= len(table.Rows) {
			continue
		}
		rows = append(rows, &eval.Row{
			Tables:  append([]string(nil), tables...),
			Columns: append([]string(nil), columns...),
			Values:  append([]value.Value(nil), table.Rows[pos]...),
		})
	}
	return ex.filterRows(rows, n.ScanFilter, outer)
}

// positionsForOperation fetches the position list matching the plan's
// index operation, falling back to every posting if the planner left no
// operation attached (should not happen once a usage is matched, but
// keeps the scan correct rather than empty if it ever does).
func positionsForOperation(idx *catalog.Index, op *planner.IndexOperation) []int {
	if op == nil {
		return idx.All()
	}
	switch op.Kind {
	case planner.IndexEq:
		return idx.Lookup(op.Value)
	case planner.IndexIn:
		var out []int
		for _, v := range op.Values {
			out = append(out, idx.Lookup(v)...)
		}
		return out
	case planner.IndexRange:
		return idx.Range(op.Min, op.MinIncl, op.Max, op.MaxIncl)
	}
	return idx.All()
}

func (ex *Executor) execFilter(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	input, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}
	return ex.filterRows(input, n.Condition, outer)
}

func (ex *Executor) filterRows(rows []*eval.Row, cond ast.Expression, outer *eval.Context) ([]*eval.Row, error) {
	if cond == nil {
		return rows, nil
	}
	out := make([]*eval.Row, 0, len(rows))
	for _, r := range rows {
		ctx := &eval.Context{Row: r, Outer: outer, Runner: ex}
		ok, err := eval.Matches(ctx, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// execNestedLoopJoin evaluates the join condition against every
// left/right row pair's combined row: the O(n*m) fallback the planner
// picks whenever the condition isn't a plain column equality.
func (ex *Executor) execNestedLoopJoin(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	left, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}
	right, err := ex.executeNode(n.Children[1], outer)
	if err != nil {
		return nil, err
	}
	return nestedLoopRows(ex, left, right, n.Condition, outer)
}

func nestedLoopRows(ex *Executor, left, right []*eval.Row, cond ast.Expression, outer *eval.Context) ([]*eval.Row, error) {
	var out []*eval.Row
	for _, l := range left {
		for _, r := range right {
			combined := combineRows(l, r)
			ctx := &eval.Context{Row: combined, Outer: outer, Runner: ex}
			ok, err := eval.Matches(ctx, cond)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, combined)
			}
		}
	}
	return out, nil
}

// execHashJoin builds a hash table on the smaller input's join key and
// probes it with the larger input, for the equality conditions the
// planner restricts HashJoin selection to. It falls back to the
// nested-loop evaluation if the condition's sides can't be resolved
// against exactly one input each (should not happen given the planner's
// isEqualityJoin gate, but keeps execution correct regardless).
func (ex *Executor) execHashJoin(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	left, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}
	right, err := ex.executeNode(n.Children[1], outer)
	if err != nil {
		return nil, err
	}

	cond, ok := n.Condition.(*ast.BinaryExpression)
	if !ok || cond.Operator != ast.OpEq {
		return nestedLoopRows(ex, left, right, n.Condition, outer)
	}
	leftKeyExpr, rightKeyExpr, ok := splitJoinKey(cond, left, right)
	if !ok {
		return nestedLoopRows(ex, left, right, n.Condition, outer)
	}

	buildRows, probeRows := left, right
	buildKeyExpr, probeKeyExpr := leftKeyExpr, rightKeyExpr
	swapped := false
	if len(right) < len(left) {
		buildRows, probeRows = right, left
		buildKeyExpr, probeKeyExpr = rightKeyExpr, leftKeyExpr
		swapped = true
	}

	table := make(map[string][]*eval.Row, len(buildRows))
	for _, r := range buildRows {
		v, err := eval.Eval(&eval.Context{Row: r, Outer: outer, Runner: ex}, buildKeyExpr)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			continue
		}
		k := hashKey(v)
		table[k] = append(table[k], r)
	}

	var out []*eval.Row
	for _, pr := range probeRows {
		v, err := eval.Eval(&eval.Context{Row: pr, Outer: outer, Runner: ex}, probeKeyExpr)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			continue
		}
		for _, br := range table[hashKey(v)] {
			if swapped {
				out = append(out, combineRows(pr, br))
			} else {
				out = append(out, combineRows(br, pr))
			}
		}
	}
	return out, nil
}

// splitJoinKey decides which side of an equality condition's two
// operands resolves against the left input and which against the
// right, by test-evaluating each operand against a sample row. Returns
// ok=false if neither assignment resolves cleanly.
func splitJoinKey(cond *ast.BinaryExpression, left, right []*eval.Row) (leftExpr, rightExpr ast.Expression, ok bool) {
	resolves := func(expr ast.Expression, row *eval.Row) bool {
		_, err := eval.Eval(&eval.Context{Row: row}, expr)
		return err == nil
	}
	if len(left) > 0 {
		sample := left[0]
		if resolves(cond.Left, sample) {
			return cond.Left, cond.Right, true
		}
		if resolves(cond.Right, sample) {
			return cond.Right, cond.Left, true
		}
	}
	if len(right) > 0 {
		sample := right[0]
		if resolves(cond.Left, sample) {
			return cond.Right, cond.Left, true
		}
		if resolves(cond.Right, sample) {
			return cond.Left, cond.Right, true
		}
	}
	return cond.Left, cond.Right, len(left) == 0 && len(right) == 0
}

// hashKey renders v into a string that collides exactly when v.Equal
// would, normalizing Integer/Float to the same bucket the way
// value.Compare treats them as one numeric domain.
func hashKey(v value.Value) string {
	if v.IsNumeric() {
		return fmt.Sprintf("N:%v", v.AsFloat64())
	}
	return fmt.Sprintf("%d:%s", v.Kind(), v.String())
}

func combineRows(left, right *eval.Row) *eval.Row {
	return &eval.Row{
		Tables:  append(append([]string(nil), left.Tables...), right.Tables...),
		Columns: append(append([]string(nil), left.Columns...), right.Columns...),
		Values:  append(append([]value.Value(nil), left.Values...), right.Values...),
	}
}

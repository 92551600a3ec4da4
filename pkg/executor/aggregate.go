package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/eval"
	"github.com/Chahine-tech/rowql/pkg/planner"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// execAggregate groups input rows by the GROUP BY expressions (the whole
// input forms a single group when there are none), computes every
// aggregate function over each group, and applies HAVING against the
// resulting one-row-per-group output.
func (ex *Executor) execAggregate(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	input, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}

	type group struct {
		key  []value.Value
		rows []*eval.Row
	}

	order := make([]string, 0)
	groups := make(map[string]*group)

	for _, r := range input {
		key := make([]value.Value, len(n.GroupBy))
		for i, expr := range n.GroupBy {
			v, err := eval.Eval(&eval.Context{Row: r, Outer: outer, Runner: ex}, expr)
			if err != nil {
				return nil, err
			}
			key[i] = v
		}
		k := groupKey(key)
		g, ok := groups[k]
		if !ok {
			g = &group{key: key}
			groups[k] = g
			order = append(order, k)
		}
		g.rows = append(g.rows, r)
	}

	if len(groups) == 0 && len(n.GroupBy) == 0 {
		// No input rows and no GROUP BY still yields one aggregate row,
		// e.g. SELECT COUNT(*) FROM empty_table.
		order = append(order, "")
		groups[""] = &group{}
	}

	var out []*eval.Row
	for _, k := range order {
		g := groups[k]

		columns := make([]string, 0, len(n.GroupBy)+len(n.Aggregates))
		tables := make([]string, 0, cap(columns))
		values := make([]value.Value, 0, cap(columns))

		for i, expr := range n.GroupBy {
			columns = append(columns, expr.String())
			tables = append(tables, "")
			values = append(values, g.key[i])
		}
		for _, agg := range n.Aggregates {
			v, err := computeAggregate(agg, g.rows, outer, ex)
			if err != nil {
				return nil, err
			}
			columns = append(columns, agg.String())
			tables = append(tables, "")
			values = append(values, v)
		}

		row := &eval.Row{Tables: tables, Columns: columns, Values: values}

		if n.Having != nil {
			bound := substituteAggregates(n.Having, g.rows, outer, ex)
			ok, err := eval.Matches(&eval.Context{Row: row, Outer: outer, Runner: ex}, bound)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		out = append(out, row)
	}
	return out, nil
}

func groupKey(vals []value.Value) string {
	var sb strings.Builder
	for _, v := range vals {
		sb.WriteString(strconv.Itoa(int(v.Kind())))
		sb.WriteByte(':')
		sb.WriteString(v.String())
		sb.WriteByte('|')
	}
	return sb.String()
}

// computeAggregate evaluates one COUNT/SUM/AVG/MIN/MAX call over a
// group's rows, honoring DISTINCT and skipping NULLs per standard SQL
// aggregate semantics.
func computeAggregate(fc *ast.FunctionCall, rows []*eval.Row, outer *eval.Context, runner eval.QueryRunner) (value.Value, error) {
	name := strings.ToUpper(fc.Name)

	if name == "COUNT" && fc.Star {
		return value.NewInteger(int64(len(rows))), nil
	}

	var values []value.Value
	seen := make(map[string]bool)
	for _, r := range rows {
		v, err := eval.Eval(&eval.Context{Row: r, Outer: outer, Runner: runner}, fc.Arg)
		if err != nil {
			return value.Value{}, err
		}
		if v.IsNull() {
			continue
		}
		if fc.Distinct {
			k := groupKey([]value.Value{v})
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, v)
	}

	switch name {
	case "COUNT":
		return value.NewInteger(int64(len(values))), nil
	case "SUM":
		sum := 0.0
		for _, v := range values {
			sum += v.AsFloat64()
		}
		return value.NewFloat(sum), nil
	case "AVG":
		if len(values) == 0 {
			return value.NewNull(), nil
		}
		sum := 0.0
		for _, v := range values {
			sum += v.AsFloat64()
		}
		return value.NewFloat(sum / float64(len(values))), nil
	case "MIN":
		if len(values) == 0 {
			return value.NewNull(), nil
		}
		min := values[0]
		for _, v := range values[1:] {
			if value.Less(v, min) {
				min = v
			}
		}
		return min, nil
	case "MAX":
		if len(values) == 0 {
			return value.NewNull(), nil
		}
		max := values[0]
		for _, v := range values[1:] {
			if value.Less(max, v) {
				max = v
			}
		}
		return max, nil
	default:
		return value.Value{}, fmt.Errorf("unknown aggregate function %q", fc.Name)
	}
}

// substituteAggregates rewrites every FunctionCall node in expr into a
// Literal holding its computed value over rows, so the rest of the
// expression can be evaluated by pkg/eval unmodified. Used for HAVING.
func substituteAggregates(expr ast.Expression, rows []*eval.Row, outer *eval.Context, runner eval.QueryRunner) ast.Expression {
	switch e := expr.(type) {
	case *ast.FunctionCall:
		v, err := computeAggregate(e, rows, outer, runner)
		if err != nil {
			return &ast.Literal{Value: value.NewNull()}
		}
		return &ast.Literal{Value: v}
	case *ast.BinaryExpression:
		return &ast.BinaryExpression{
			Left:     substituteAggregates(e.Left, rows, outer, runner),
			Operator: e.Operator,
			Right:    substituteAggregates(e.Right, rows, outer, runner),
		}
	case *ast.UnaryExpression:
		return &ast.UnaryExpression{Operator: e.Operator, Operand: substituteAggregates(e.Operand, rows, outer, runner)}
	case *ast.BetweenExpression:
		return &ast.BetweenExpression{
			Expr: substituteAggregates(e.Expr, rows, outer, runner),
			Low:  substituteAggregates(e.Low, rows, outer, runner),
			High: substituteAggregates(e.High, rows, outer, runner),
			Not:  e.Not,
		}
	case *ast.LikeExpression:
		return &ast.LikeExpression{
			Expr:    substituteAggregates(e.Expr, rows, outer, runner),
			Pattern: substituteAggregates(e.Pattern, rows, outer, runner),
			Not:     e.Not,
		}
	case *ast.IsNullExpression:
		return &ast.IsNullExpression{Expr: substituteAggregates(e.Expr, rows, outer, runner), Not: e.Not}
	default:
		return expr
	}
}

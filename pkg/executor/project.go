package executor

import (
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/eval"
	"github.com/Chahine-tech/rowql/pkg/planner"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// execProject evaluates the SELECT list against each input row, expanding
// * and table.* into every current column.
func (ex *Executor) execProject(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	input, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}

	out := make([]*eval.Row, 0, len(input))
	for _, r := range input {
		projected, err := ex.projectRow(r, n.Columns, outer)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

func (ex *Executor) projectRow(r *eval.Row, items []ast.SelectItem, outer *eval.Context) (*eval.Row, error) {
	var tables, columns []string
	var values []value.Value

	for _, item := range items {
		if item.Star {
			for i := range r.Columns {
				if item.Table != "" && !strings.EqualFold(r.Tables[i], item.Table) {
					continue
				}
				tables = append(tables, r.Tables[i])
				columns = append(columns, r.Columns[i])
				values = append(values, r.Values[i])
			}
			continue
		}

		expr := bindAggregateColumns(item.Expr, r)
		v, err := eval.Eval(&eval.Context{Row: r, Outer: outer, Runner: ex}, expr)
		if err != nil {
			return nil, err
		}

		name := item.Alias
		if name == "" {
			name = columnLabel(item.Expr)
		}
		tables = append(tables, "")
		columns = append(columns, name)
		values = append(values, v)
	}

	return &eval.Row{Tables: tables, Columns: columns, Values: values}, nil
}

func columnLabel(expr ast.Expression) string {
	if cr, ok := expr.(*ast.ColumnReference); ok {
		return cr.Column
	}
	return expr.String()
}

// bindAggregateColumns rewrites FunctionCall nodes into Literals pulled
// directly from row's already-computed aggregate columns (see
// execAggregate), rather than recomputing them over a single row.
func bindAggregateColumns(expr ast.Expression, r *eval.Row) ast.Expression {
	switch e := expr.(type) {
	case *ast.FunctionCall:
		if v, ok := r.Get("", e.String()); ok {
			return &ast.Literal{Value: v}
		}
		return expr
	case *ast.BinaryExpression:
		return &ast.BinaryExpression{
			Left:     bindAggregateColumns(e.Left, r),
			Operator: e.Operator,
			Right:    bindAggregateColumns(e.Right, r),
		}
	case *ast.UnaryExpression:
		return &ast.UnaryExpression{Operator: e.Operator, Operand: bindAggregateColumns(e.Operand, r)}
	default:
		return expr
	}
}

func (ex *Executor) execDistinct(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	input, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(input))
	out := make([]*eval.Row, 0, len(input))
	for _, r := range input {
		k := groupKey(r.Values)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out, nil
}

func (ex *Executor) execUnion(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	left, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}
	right, err := ex.executeNode(n.Children[1], outer)
	if err != nil {
		return nil, err
	}
	combined := append(append([]*eval.Row(nil), left...), right...)
	if n.UnionAll {
		return combined, nil
	}
	seen := make(map[string]bool, len(combined))
	out := make([]*eval.Row, 0, len(combined))
	for _, r := range combined {
		k := groupKey(r.Values)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out, nil
}

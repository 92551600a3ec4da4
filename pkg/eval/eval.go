// Package eval evaluates scalar and predicate expressions against a row,
// with correlated-subquery support via an outer row context. It replaces
// the always-true placeholder evaluation an earlier, simpler executor
// design might settle for: every plan node routes its filter and join
// conditions through this package for real.
package eval

import (
	"fmt"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// Row is one materialized row plus the column names it carries, in the
// shape the executor builds it in: every column has an unqualified name
// and its owning table name side by side; join results concatenate the
// left and right rows' columns.
type Row struct {
	Tables  []string // per-column owning table name, "" if none
	Columns []string // per-column name
	Values  []value.Value
}

// Get resolves a (table, column) reference against this row. table may
// be empty, in which case the first column whose name matches wins.
func (r *Row) Get(table, column string) (value.Value, bool) {
	for i, col := range r.Columns {
		if !strings.EqualFold(col, column) {
			continue
		}
		if table != "" && !strings.EqualFold(r.Tables[i], table) {
			continue
		}
		return r.Values[i], true
	}
	return value.Value{}, false
}

// Result is the tabular output of running a SELECT, used for subquery
// evaluation (scalar, IN, EXISTS).
type Result struct {
	Columns []string
	Rows    [][]value.Value
}

// QueryRunner executes a SELECT statement, optionally correlated against
// an outer Context. pkg/executor implements this; pkg/eval only depends
// on the interface to avoid an import cycle.
type QueryRunner interface {
	RunSelect(stmt *ast.SelectStatement, outer *Context) (*Result, error)
}

// Context threads the current row and an optional outer row through
// expression evaluation, so an unqualified or qualified column reference
// that misses on the current row falls through to the outer query's row
// instead of requiring closures.
type Context struct {
	Row    *Row
	Outer  *Context
	Runner QueryRunner
}

func (c *Context) resolveColumn(ref *ast.ColumnReference) (value.Value, error) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if ctx.Row == nil {
			continue
		}
		if v, ok := ctx.Row.Get(ref.Table, ref.Column); ok {
			return v, nil
		}
	}
	return value.Value{}, fmt.Errorf("column '%s' does not exist", ref.String())
}

// Eval evaluates expr against ctx, returning its scalar Value.
func Eval(ctx *Context, expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil

	case *ast.ColumnReference:
		return ctx.resolveColumn(e)

	case *ast.BinaryExpression:
		return evalBinary(ctx, e)

	case *ast.UnaryExpression:
		return evalUnary(ctx, e)

	case *ast.IsNullExpression:
		v, err := Eval(ctx, e.Expr)
		if err != nil {
			return value.Value{}, err
		}
		result := v.IsNull()
		if e.Not {
			result = !result
		}
		return value.NewBoolean(result), nil

	case *ast.BetweenExpression:
		return evalBetween(ctx, e)

	case *ast.LikeExpression:
		return evalLike(ctx, e)

	case *ast.InExpression:
		return evalIn(ctx, e)

	case *ast.ExistsExpression:
		return evalExists(ctx, e)

	case *ast.ScalarSubquery:
		return evalScalarSubquery(ctx, e.Subquery)

	case *ast.SelectStatement:
		// A bare SELECT reached as an Expression is always a scalar
		// subquery (parenthesized-select parsing wraps it otherwise).
		return evalScalarSubquery(ctx, e)

	default:
		return value.Value{}, fmt.Errorf("cannot evaluate expression of type %T", expr)
	}
}

// Matches evaluates a predicate expression and reports whether it is
// true; NULL and boolean-false both count as non-matching, which is the
// engine's WHERE/HAVING/ON truth test.
func Matches(ctx *Context, expr ast.Expression) (bool, error) {
	v, err := Eval(ctx, expr)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

func evalUnary(ctx *Context, e *ast.UnaryExpression) (value.Value, error) {
	v, err := Eval(ctx, e.Operand)
	if err != nil {
		return value.Value{}, err
	}
	switch e.Operator {
	case ast.OpNot:
		if v.IsNull() {
			return value.NewNull(), nil
		}
		return value.NewBoolean(!v.Truthy()), nil
	case ast.OpNeg:
		if v.IsNull() {
			return value.NewNull(), nil
		}
		if !v.IsNumeric() {
			return value.Value{}, fmt.Errorf("unary - requires a numeric operand")
		}
		if v.Kind() == value.Integer {
			return value.NewInteger(-v.Integer()), nil
		}
		return value.NewFloat(-v.Float()), nil
	}
	return value.Value{}, fmt.Errorf("unknown unary operator %q", e.Operator)
}

func evalBinary(ctx *Context, e *ast.BinaryExpression) (value.Value, error) {
	switch e.Operator {
	case ast.OpAnd:
		return evalAnd(ctx, e.Left, e.Right)
	case ast.OpOr:
		return evalOr(ctx, e.Left, e.Right)
	}

	left, err := Eval(ctx, e.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := Eval(ctx, e.Right)
	if err != nil {
		return value.Value{}, err
	}

	switch e.Operator {
	case ast.OpEq, ast.OpNotEq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		if left.IsNull() || right.IsNull() {
			return value.NewNull(), nil
		}
		cmp := value.Compare(left, right)
		var result bool
		switch e.Operator {
		case ast.OpEq:
			result = cmp == 0
		case ast.OpNotEq:
			result = cmp != 0
		case ast.OpLt:
			result = cmp < 0
		case ast.OpLte:
			result = cmp <= 0
		case ast.OpGt:
			result = cmp > 0
		case ast.OpGte:
			result = cmp >= 0
		}
		return value.NewBoolean(result), nil

	case ast.OpPlus, ast.OpMinus, ast.OpMul, ast.OpDiv:
		return evalArithmetic(e.Operator, left, right)
	}

	return value.Value{}, fmt.Errorf("unknown binary operator %q", e.Operator)
}

func evalAnd(ctx *Context, leftExpr, rightExpr ast.Expression) (value.Value, error) {
	left, err := Eval(ctx, leftExpr)
	if err != nil {
		return value.Value{}, err
	}
	if !left.IsNull() && !left.Truthy() {
		return value.NewBoolean(false), nil
	}
	right, err := Eval(ctx, rightExpr)
	if err != nil {
		return value.Value{}, err
	}
	if !right.IsNull() && !right.Truthy() {
		return value.NewBoolean(false), nil
	}
	if left.IsNull() || right.IsNull() {
		return value.NewNull(), nil
	}
	return value.NewBoolean(true), nil
}

func evalOr(ctx *Context, leftExpr, rightExpr ast.Expression) (value.Value, error) {
	left, err := Eval(ctx, leftExpr)
	if err != nil {
		return value.Value{}, err
	}
	if left.Truthy() {
		return value.NewBoolean(true), nil
	}
	right, err := Eval(ctx, rightExpr)
	if err != nil {
		return value.Value{}, err
	}
	if right.Truthy() {
		return value.NewBoolean(true), nil
	}
	if left.IsNull() || right.IsNull() {
		return value.NewNull(), nil
	}
	return value.NewBoolean(false), nil
}

func evalArithmetic(op ast.BinaryOperator, left, right value.Value) (value.Value, error) {
	if left.IsNull() || right.IsNull() {
		return value.NewNull(), nil
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, fmt.Errorf("arithmetic operator %q requires numeric operands", op)
	}
	if left.Kind() == value.Integer && right.Kind() == value.Integer {
		a, b := left.Integer(), right.Integer()
		switch op {
		case ast.OpPlus:
			return value.NewInteger(a + b), nil
		case ast.OpMinus:
			return value.NewInteger(a - b), nil
		case ast.OpMul:
			return value.NewInteger(a * b), nil
		case ast.OpDiv:
			if b == 0 {
				return value.Value{}, fmt.Errorf("division by zero")
			}
			return value.NewInteger(a / b), nil
		}
	}
	a, b := left.AsFloat64(), right.AsFloat64()
	switch op {
	case ast.OpPlus:
		return value.NewFloat(a + b), nil
	case ast.OpMinus:
		return value.NewFloat(a - b), nil
	case ast.OpMul:
		return value.NewFloat(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return value.Value{}, fmt.Errorf("division by zero")
		}
		return value.NewFloat(a / b), nil
	}
	return value.Value{}, fmt.Errorf("unknown arithmetic operator %q", op)
}

func evalBetween(ctx *Context, e *ast.BetweenExpression) (value.Value, error) {
	v, err := Eval(ctx, e.Expr)
	if err != nil {
		return value.Value{}, err
	}
	low, err := Eval(ctx, e.Low)
	if err != nil {
		return value.Value{}, err
	}
	high, err := Eval(ctx, e.High)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsNull() || low.IsNull() || high.IsNull() {
		return value.NewNull(), nil
	}
	result := value.Compare(v, low) >= 0 && value.Compare(v, high) <= 0
	if e.Not {
		result = !result
	}
	return value.NewBoolean(result), nil
}

func evalIn(ctx *Context, e *ast.InExpression) (value.Value, error) {
	left, err := Eval(ctx, e.Left)
	if err != nil {
		return value.Value{}, err
	}
	if left.IsNull() {
		return value.NewNull(), nil
	}

	var candidates []value.Value
	sawNull := false

	if e.Subquery != nil {
		res, err := runSubquery(ctx, e.Subquery)
		if err != nil {
			return value.Value{}, err
		}
		for _, row := range res.Rows {
			if len(row) == 0 {
				continue
			}
			if row[0].IsNull() {
				sawNull = true
				continue
			}
			candidates = append(candidates, row[0])
		}
	} else {
		for _, ve := range e.Values {
			v, err := Eval(ctx, ve)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				sawNull = true
				continue
			}
			candidates = append(candidates, v)
		}
	}

	found := false
	for _, c := range candidates {
		if value.Equal(left, c) {
			found = true
			break
		}
	}

	if !found && sawNull {
		// No match found, but an unknown (NULL) candidate means the
		// overall membership test is unknown too, whether IN or NOT IN.
		return value.NewNull(), nil
	}
	result := found
	if e.Not {
		result = !result
	}
	return value.NewBoolean(result), nil
}

func evalLike(ctx *Context, e *ast.LikeExpression) (value.Value, error) {
	left, err := Eval(ctx, e.Expr)
	if err != nil {
		return value.Value{}, err
	}
	pattern, err := Eval(ctx, e.Pattern)
	if err != nil {
		return value.Value{}, err
	}
	if left.IsNull() || pattern.IsNull() {
		return value.NewNull(), nil
	}
	if left.Kind() != value.Text || pattern.Kind() != value.Text {
		return value.Value{}, fmt.Errorf("LIKE requires text operands")
	}
	result := likeMatch(left.Text(), pattern.Text())
	if e.Not {
		result = !result
	}
	return value.NewBoolean(result), nil
}

func evalExists(ctx *Context, e *ast.ExistsExpression) (value.Value, error) {
	res, err := runSubquery(ctx, e.Subquery)
	if err != nil {
		return value.Value{}, err
	}
	exists := len(res.Rows) > 0
	if e.Not {
		exists = !exists
	}
	return value.NewBoolean(exists), nil
}

// evalScalarSubquery returns the first row's first column, or NULL if
// the subquery produces no rows. A subquery returning multiple rows is
// not an error: the first row in scan order is taken silently.
func evalScalarSubquery(ctx *Context, stmt *ast.SelectStatement) (value.Value, error) {
	res, err := runSubquery(ctx, stmt)
	if err != nil {
		return value.Value{}, err
	}
	if len(res.Rows) == 0 || len(res.Columns) == 0 {
		return value.NewNull(), nil
	}
	return res.Rows[0][0], nil
}

func runSubquery(ctx *Context, stmt *ast.SelectStatement) (*Result, error) {
	if ctx.Runner == nil {
		return nil, fmt.Errorf("no query runner available to evaluate subquery")
	}
	return ctx.Runner.RunSelect(stmt, ctx)
}

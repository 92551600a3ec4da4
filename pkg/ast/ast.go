// Package ast defines the syntax tree produced by pkg/parser and consumed
// by pkg/planner and pkg/eval.
package ast

import (
	"fmt"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/value"
)

// Node is the common interface for every statement and expression node.
type Node interface {
	String() string
}

// Statement is a top-level SQL statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is anything that evaluates to a Value.
type Expression interface {
	Node
	expressionNode()
}

// ---- Table / column references ----

type TableReference struct {
	Name  string
	Alias string
}

func (t TableReference) String() string {
	if t.Alias != "" {
		return fmt.Sprintf("%s AS %s", t.Name, t.Alias)
	}
	return t.Name
}

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
)

func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	default:
		return "INNER JOIN"
	}
}

type JoinClause struct {
	JoinType  JoinType
	Table     TableReference
	Condition Expression
}

func (j JoinClause) String() string {
	return fmt.Sprintf("%s %s ON %s", j.JoinType, j.Table, j.Condition)
}

// ---- Expressions ----

type ColumnReference struct {
	Table  string
	Column string
}

func (c *ColumnReference) expressionNode() {}
func (c *ColumnReference) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Column
	}
	return c.Column
}

type Literal struct {
	Value value.Value
}

func (l *Literal) expressionNode() {}
func (l *Literal) String() string {
	if l.Value.Kind() == value.Text {
		return "'" + l.Value.Text() + "'"
	}
	return l.Value.String()
}

type BinaryOperator string

const (
	OpEq    BinaryOperator = "="
	OpNotEq BinaryOperator = "<>"
	OpLt    BinaryOperator = "<"
	OpLte   BinaryOperator = "<="
	OpGt    BinaryOperator = ">"
	OpGte   BinaryOperator = ">="
	OpAnd   BinaryOperator = "AND"
	OpOr    BinaryOperator = "OR"
	OpPlus  BinaryOperator = "+"
	OpMinus BinaryOperator = "-"
	OpMul   BinaryOperator = "*"
	OpDiv   BinaryOperator = "/"
)

type BinaryExpression struct {
	Left     Expression
	Operator BinaryOperator
	Right    Expression
}

func (b *BinaryExpression) expressionNode() {}
func (b *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

type UnaryOperator string

const (
	OpNot   UnaryOperator = "NOT"
	OpNeg   UnaryOperator = "-"
)

type UnaryExpression struct {
	Operator UnaryOperator
	Operand  Expression
}

func (u *UnaryExpression) expressionNode() {}
func (u *UnaryExpression) String() string {
	return fmt.Sprintf("(%s %s)", u.Operator, u.Operand)
}

type InExpression struct {
	Left     Expression
	Values   []Expression
	Subquery *SelectStatement
	Not      bool
}

func (e *InExpression) expressionNode() {}
func (e *InExpression) String() string {
	not := ""
	if e.Not {
		not = "NOT "
	}
	if e.Subquery != nil {
		return fmt.Sprintf("(%s %sIN (%s))", e.Left, not, e.Subquery)
	}
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = v.String()
	}
	return fmt.Sprintf("(%s %sIN (%s))", e.Left, not, strings.Join(parts, ", "))
}

type BetweenExpression struct {
	Expr Expression
	Low  Expression
	High Expression
	Not  bool
}

func (e *BetweenExpression) expressionNode() {}
func (e *BetweenExpression) String() string {
	not := ""
	if e.Not {
		not = "NOT "
	}
	return fmt.Sprintf("(%s %sBETWEEN %s AND %s)", e.Expr, not, e.Low, e.High)
}

type IsNullExpression struct {
	Expr Expression
	Not  bool
}

func (e *IsNullExpression) expressionNode() {}
func (e *IsNullExpression) String() string {
	if e.Not {
		return fmt.Sprintf("(%s IS NOT NULL)", e.Expr)
	}
	return fmt.Sprintf("(%s IS NULL)", e.Expr)
}

type LikeExpression struct {
	Expr    Expression
	Pattern Expression
	Not     bool
}

func (e *LikeExpression) expressionNode() {}
func (e *LikeExpression) String() string {
	not := ""
	if e.Not {
		not = "NOT "
	}
	return fmt.Sprintf("(%s %sLIKE %s)", e.Expr, not, e.Pattern)
}

type ExistsExpression struct {
	Subquery *SelectStatement
	Not      bool
}

func (e *ExistsExpression) expressionNode() {}
func (e *ExistsExpression) String() string {
	if e.Not {
		return fmt.Sprintf("(NOT EXISTS (%s))", e.Subquery)
	}
	return fmt.Sprintf("(EXISTS (%s))", e.Subquery)
}

// ScalarSubquery wraps a SELECT used in a scalar expression context.
type ScalarSubquery struct {
	Subquery *SelectStatement
}

func (e *ScalarSubquery) expressionNode() {}
func (e *ScalarSubquery) String() string  { return fmt.Sprintf("(%s)", e.Subquery) }

// FunctionCall covers the aggregate functions COUNT, SUM, AVG, MIN, MAX.
// COUNT(*) is represented with Star=true and Arg=nil.
type FunctionCall struct {
	Name     string
	Arg      Expression
	Star     bool
	Distinct bool
}

func (f *FunctionCall) expressionNode() {}
func (f *FunctionCall) String() string {
	if f.Star {
		return fmt.Sprintf("%s(*)", f.Name)
	}
	return fmt.Sprintf("%s(%s)", f.Name, f.Arg)
}

// ---- SELECT ----

type SelectItem struct {
	Star  bool
	Table string // qualifies a star: Table.*
	Expr  Expression
	Alias string
}

func (s SelectItem) String() string {
	if s.Star {
		if s.Table != "" {
			return s.Table + ".*"
		}
		return "*"
	}
	if s.Alias != "" {
		return fmt.Sprintf("%s AS %s", s.Expr, s.Alias)
	}
	return s.Expr.String()
}

type OrderByItem struct {
	Expr Expression
	Desc bool
}

func (o OrderByItem) String() string {
	if o.Desc {
		return o.Expr.String() + " DESC"
	}
	return o.Expr.String() + " ASC"
}

type SelectStatement struct {
	Distinct bool
	Columns  []SelectItem
	From     *TableReference
	Joins    []JoinClause
	Where    Expression
	GroupBy  []Expression
	Having   Expression
	OrderBy  []OrderByItem
	Limit    *int
	Offset   *int

	// Union, when non-nil, chains a second SELECT combined with this one.
	Union    *SelectStatement
	UnionAll bool
}

func (s *SelectStatement) statementNode()  {}
func (s *SelectStatement) expressionNode() {} // usable as scalar/EXISTS/IN subquery
func (s *SelectStatement) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if s.Distinct {
		sb.WriteString("DISTINCT ")
	}
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = c.String()
	}
	sb.WriteString(strings.Join(cols, ", "))
	if s.From != nil {
		sb.WriteString(" FROM ")
		sb.WriteString(s.From.String())
	}
	for _, j := range s.Joins {
		sb.WriteString(" ")
		sb.WriteString(j.String())
	}
	if s.Where != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(s.Where.String())
	}
	if len(s.GroupBy) > 0 {
		parts := make([]string, len(s.GroupBy))
		for i, g := range s.GroupBy {
			parts[i] = g.String()
		}
		sb.WriteString(" GROUP BY " + strings.Join(parts, ", "))
	}
	if s.Having != nil {
		sb.WriteString(" HAVING " + s.Having.String())
	}
	if len(s.OrderBy) > 0 {
		parts := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			parts[i] = o.String()
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if s.Limit != nil {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", *s.Limit))
	}
	if s.Offset != nil {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", *s.Offset))
	}
	if s.Union != nil {
		if s.UnionAll {
			sb.WriteString(" UNION ALL ")
		} else {
			sb.WriteString(" UNION ")
		}
		sb.WriteString(s.Union.String())
	}
	return sb.String()
}

// ---- DML ----

type InsertStatement struct {
	Table   string
	Columns []string
	Rows    [][]Expression
}

func (i *InsertStatement) statementNode() {}
func (i *InsertStatement) String() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (...)", i.Table, strings.Join(i.Columns, ", "))
}

type Assignment struct {
	Column string
	Value  Expression
}

type UpdateStatement struct {
	Table       string
	Assignments []Assignment
	Where       Expression
}

func (u *UpdateStatement) statementNode() {}
func (u *UpdateStatement) String() string { return fmt.Sprintf("UPDATE %s SET ...", u.Table) }

type DeleteStatement struct {
	Table string
	Where Expression
}

func (d *DeleteStatement) statementNode() {}
func (d *DeleteStatement) String() string { return fmt.Sprintf("DELETE FROM %s", d.Table) }

// ---- DDL ----

type ForeignKeyReference struct {
	Table    string
	Columns  []string
	OnDelete string // "", "CASCADE", "RESTRICT", "SET NULL", "NO ACTION"
	OnUpdate string
}

type ColumnDefinition struct {
	Name         string
	DataType     string
	Length       int
	Precision    int
	Scale        int
	NotNull      bool
	PrimaryKey   bool
	Unique       bool
	Default      Expression
	References   *ForeignKeyReference
}

type TableConstraint struct {
	Name           string
	ConstraintType string // "PRIMARY_KEY", "FOREIGN_KEY", "UNIQUE"
	Columns        []string
	References     *ForeignKeyReference
}

type CreateTableStatement struct {
	Table       string
	IfNotExists bool
	Columns     []*ColumnDefinition
	Constraints []*TableConstraint
}

func (c *CreateTableStatement) statementNode() {}
func (c *CreateTableStatement) String() string { return fmt.Sprintf("CREATE TABLE %s", c.Table) }

type DropTableStatement struct {
	Table    string
	IfExists bool
}

func (d *DropTableStatement) statementNode() {}
func (d *DropTableStatement) String() string { return fmt.Sprintf("DROP TABLE %s", d.Table) }

type AlterAction struct {
	ActionType string // "ADD", "DROP", "RENAME"
	Column     *ColumnDefinition
	ColumnName string
	NewName    string // target name for RENAME
}

type AlterTableStatement struct {
	Table  string
	Action *AlterAction
}

func (a *AlterTableStatement) statementNode() {}
func (a *AlterTableStatement) String() string { return fmt.Sprintf("ALTER TABLE %s", a.Table) }

type CreateIndexStatement struct {
	IndexName   string
	Table       string
	Columns     []string
	Unique      bool
	IfNotExists bool
}

func (c *CreateIndexStatement) statementNode() {}
func (c *CreateIndexStatement) String() string {
	return fmt.Sprintf("CREATE INDEX %s ON %s", c.IndexName, c.Table)
}

type DropIndexStatement struct {
	IndexName string
	IfExists  bool
}

func (d *DropIndexStatement) statementNode() {}
func (d *DropIndexStatement) String() string { return fmt.Sprintf("DROP INDEX %s", d.IndexName) }

// ---- Transactions ----

type BeginStatement struct{}

func (b *BeginStatement) statementNode() {}
func (b *BeginStatement) String() string { return "BEGIN" }

type CommitStatement struct{}

func (c *CommitStatement) statementNode() {}
func (c *CommitStatement) String() string { return "COMMIT" }

type RollbackStatement struct{}

func (r *RollbackStatement) statementNode() {}
func (r *RollbackStatement) String() string { return "ROLLBACK" }

// ---- Introspection ----

type ExplainStatement struct {
	Statement Statement
}

func (e *ExplainStatement) statementNode() {}
func (e *ExplainStatement) String() string { return "EXPLAIN " + e.Statement.String() }

type DescribeStatement struct {
	Table string
}

func (d *DescribeStatement) statementNode() {}
func (d *DescribeStatement) String() string { return "DESCRIBE " + d.Table }

// Package planner turns a parsed SELECT into a cost-estimated PlanNode
// tree, choosing between a sequential and an index scan per table and
// between a nested-loop and a hash join per join clause.
package planner

import (
	"fmt"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// NodeType names one operator in a plan tree.
type NodeType string

const (
	SeqScan        NodeType = "SEQ_SCAN"
	IndexScan      NodeType = "INDEX_SCAN"
	NestedLoopJoin NodeType = "NESTED_LOOP_JOIN"
	HashJoin       NodeType = "HASH_JOIN"
	Filter         NodeType = "FILTER"
	Sort           NodeType = "SORT"
	Limit          NodeType = "LIMIT"
	Aggregate      NodeType = "AGGREGATE"
	Project        NodeType = "PROJECT"
	Distinct       NodeType = "DISTINCT"
	Union          NodeType = "UNION"
)

// IndexOpKind names which shape of IndexOperation an IndexScan carries.
type IndexOpKind string

const (
	IndexEq    IndexOpKind = "eq"
	IndexRange IndexOpKind = "range"
	IndexIn    IndexOpKind = "in"
)

// IndexOperation narrows an IndexScan to the position lists that actually
// satisfy the predicate the planner matched, instead of every posting in
// the index. Equality and IN resolve to exact-match lookups; Range walks
// the index's sorted keys between optional, independently inclusive or
// exclusive bounds.
type IndexOperation struct {
	Kind IndexOpKind

	Value  value.Value
	Values []value.Value

	Min     *value.Value
	MinIncl bool
	Max     *value.Value
	MaxIncl bool
}

func (op *IndexOperation) String() string {
	switch op.Kind {
	case IndexEq:
		return fmt.Sprintf("= %s", op.Value)
	case IndexIn:
		parts := make([]string, len(op.Values))
		for i, v := range op.Values {
			parts[i] = v.String()
		}
		return fmt.Sprintf("IN (%s)", strings.Join(parts, ", "))
	case IndexRange:
		var parts []string
		if op.Min != nil {
			cmp := ">"
			if op.MinIncl {
				cmp = ">="
			}
			parts = append(parts, fmt.Sprintf("%s %s", cmp, op.Min))
		}
		if op.Max != nil {
			cmp := "<"
			if op.MaxIncl {
				cmp = "<="
			}
			parts = append(parts, fmt.Sprintf("%s %s", cmp, op.Max))
		}
		return strings.Join(parts, " AND ")
	}
	return ""
}

// PlanNode is one operator in the plan tree. Not every field applies to
// every NodeType; see the planner functions that build each variant for
// which fields they populate.
type PlanNode struct {
	NodeType NodeType
	Children []*PlanNode

	Cost float64
	Rows int

	// Scan
	Table      string
	Alias      string
	Index      string
	Operation  *IndexOperation
	ScanFilter ast.Expression

	// Filter / join
	Condition ast.Expression

	// Sort
	OrderBy []ast.OrderByItem

	// Limit
	LimitN int // -1 means unbounded
	Offset int

	// Aggregate
	GroupBy    []ast.Expression
	Aggregates []*ast.FunctionCall
	Having     ast.Expression

	// Project
	Columns []ast.SelectItem

	// Union
	UnionAll bool
}

func (n *PlanNode) String() string {
	var sb strings.Builder
	n.writeIndented(&sb, 0)
	return sb.String()
}

func (n *PlanNode) writeIndented(sb *strings.Builder, depth int) {
	pad := strings.Repeat("  ", depth)
	switch n.NodeType {
	case SeqScan:
		fmt.Fprintf(sb, "%sSeq Scan on %s\n", pad, n.Table)
		if n.ScanFilter != nil {
			fmt.Fprintf(sb, "%s  Filter: %s\n", pad, n.ScanFilter)
		}
	case IndexScan:
		fmt.Fprintf(sb, "%sIndex Scan using %s on %s\n", pad, n.Index, n.Table)
		if n.Operation != nil {
			fmt.Fprintf(sb, "%s  Index Cond: %s\n", pad, n.Operation)
		}
		if n.ScanFilter != nil {
			fmt.Fprintf(sb, "%s  Filter: %s\n", pad, n.ScanFilter)
		}
	case NestedLoopJoin:
		fmt.Fprintf(sb, "%sNested Loop Join on %s\n", pad, n.Condition)
	case HashJoin:
		fmt.Fprintf(sb, "%sHash Join on %s\n", pad, n.Condition)
	case Filter:
		fmt.Fprintf(sb, "%sFilter: %s\n", pad, n.Condition)
	case Sort:
		parts := make([]string, len(n.OrderBy))
		for i, o := range n.OrderBy {
			parts[i] = o.String()
		}
		fmt.Fprintf(sb, "%sSort (%s)\n", pad, strings.Join(parts, ", "))
	case Limit:
		fmt.Fprintf(sb, "%sLimit: %d Offset: %d\n", pad, n.LimitN, n.Offset)
	case Aggregate:
		fmt.Fprintf(sb, "%sAggregate (Group By: %s)\n", pad, groupByString(n.GroupBy))
	case Project:
		fmt.Fprintf(sb, "%sProject\n", pad)
	case Distinct:
		fmt.Fprintf(sb, "%sDistinct\n", pad)
	case Union:
		kind := "Union"
		if n.UnionAll {
			kind = "Union All"
		}
		fmt.Fprintf(sb, "%s%s\n", pad, kind)
	}
	fmt.Fprintf(sb, "%s  Cost: %.2f, Rows: %d\n", pad, n.Cost, n.Rows)
	for _, c := range n.Children {
		c.writeIndented(sb, depth+1)
	}
}

func groupByString(exprs []ast.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Explain renders a "Query Plan:" header followed by the plan tree, the
// format EXPLAIN prints to the client.
func Explain(n *PlanNode) string {
	return "Query Plan:\n" + n.String()
}

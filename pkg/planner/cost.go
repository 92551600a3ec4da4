package planner

import (
	"math"

	"github.com/Chahine-tech/rowql/pkg/ast"
)

func estimateSeqScanCost(rowCount int) float64 {
	return float64(rowCount) * 1.0
}

func estimateIndexScanCost(totalRows, selectedRows int) float64 {
	return math.Log(float64(totalRows)) * 2.0 + float64(selectedRows) * 0.5
}

func estimateHashJoinCost(leftCost, rightCost float64, leftRows, rightRows int) float64 {
	buildCost := float64(min(leftRows, rightRows)) * 1.5
	probeCost := float64(max(leftRows, rightRows)) * 0.5
	return leftCost + rightCost + buildCost + probeCost
}

func estimateNestedLoopJoinCost(leftCost, rightCost float64, leftRows, rightRows int) float64 {
	return leftCost + rightCost + float64(leftRows*rightRows)
}

func estimateSortCost(rowCount int) float64 {
	if rowCount <= 1 {
		return 0
	}
	n := float64(rowCount)
	return n * math.Log(n) * 0.5
}

func estimateAggregateCost(inputRows, groupByCols, aggCount int) float64 {
	return float64(inputRows) * (1.0 + float64(groupByCols+aggCount)*0.1)
}

func estimateFilterCost(inputRows int) float64 {
	return float64(inputRows) * 0.1
}

// estimateSelectivity mirrors the fixed selectivity table the donor
// engine's planner uses: crude but stable heuristics rather than real
// histograms, since this engine keeps no column statistics beyond row
// counts.
func estimateSelectivity(cond ast.Expression, totalRows int) float64 {
	switch e := cond.(type) {
	case *ast.BinaryExpression:
		switch e.Operator {
		case ast.OpEq:
			return 0.1
		case ast.OpNotEq:
			return 0.9
		case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
			return 0.5
		case ast.OpAnd:
			return 0.3
		case ast.OpOr:
			return 0.7
		}
		return 0.5
	case *ast.InExpression:
		if totalRows < 1 {
			totalRows = 1
		}
		n := len(e.Values)
		s := float64(n) / float64(totalRows)
		if s > 1 {
			s = 1
		}
		return s
	case *ast.IsNullExpression:
		return 0.1
	case *ast.LikeExpression:
		return 0.2
	case *ast.BetweenExpression:
		return 0.3
	default:
		return 0.5
	}
}

func estimateJoinRows(leftRows, rightRows int, equality bool) int {
	product := float64(leftRows) * float64(rightRows)
	if equality {
		return int(product * 0.1)
	}
	return int(product * 0.01)
}

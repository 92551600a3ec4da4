package executor

import (
	"sort"

	"github.com/Chahine-tech/rowql/pkg/eval"
	"github.com/Chahine-tech/rowql/pkg/planner"
	"github.com/Chahine-tech/rowql/pkg/value"
)

func (ex *Executor) execSort(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	rows, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}

	var sortErr error
	out := append([]*eval.Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, item := range n.OrderBy {
			a, err := eval.Eval(&eval.Context{Row: out[i], Outer: outer, Runner: ex}, item.Expr)
			if err != nil {
				sortErr = err
				return false
			}
			b, err := eval.Eval(&eval.Context{Row: out[j], Outer: outer, Runner: ex}, item.Expr)
			if err != nil {
				sortErr = err
				return false
			}
			cmp := value.Compare(a, b)
			if cmp == 0 {
				continue
			}
			if item.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func (ex *Executor) execLimit(n *planner.PlanNode, outer *eval.Context) ([]*eval.Row, error) {
	rows, err := ex.executeNode(n.Children[0], outer)
	if err != nil {
		return nil, err
	}
	offset := n.Offset
	if offset > len(rows) {
		offset = len(rows)
	}
	rows = rows[offset:]
	if n.LimitN >= 0 && len(rows) > n.LimitN {
		rows = rows[:n.LimitN]
	}
	return rows, nil
}

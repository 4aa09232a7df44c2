package models

import (
	"sort"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/mapping"
)

// ProjectIDsInQuery collects the ids compared against the given project
// column in the query's top-level AND scope, through `col = n` and
// `col IN tuple(...)` conditions. Conditions nested under OR contribute
// nothing: their ids are not guaranteed for every row.
func ProjectIDsInQuery(q *Query, projectColumn string) []int64 {
	cond := q.Condition()
	if cond == nil {
		return nil
	}
	seen := map[int64]struct{}{}
	for _, c := range ast.FirstLevelConditions(cond) {
		basic, ok := c.(*ast.BasicCondition)
		if !ok {
			continue
		}
		col, ok := basic.LHS.(*ast.Column)
		if !ok || col.ColumnName != projectColumn {
			continue
		}
		switch basic.Op {
		case mapping.OpEquals:
			if id, ok := literalInt(basic.RHS); ok {
				seen[id] = struct{}{}
			}
		case mapping.OpIn:
			fc, ok := basic.RHS.(*ast.FunctionCall)
			if !ok || fc.Name != "tuple" {
				continue
			}
			for _, p := range fc.Parameters {
				if id, ok := literalInt(p); ok {
					seen[id] = struct{}{}
				}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func literalInt(e ast.Expression) (int64, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, false
	}
	switch v := lit.Value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

package processors

import (
	"context"
	"sort"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/mapping"
)

// DefaultMaxPrewhereConditions bounds how many conditions the processor
// hoists; PREWHERE pays off for a few selective predicates, not the whole
// filter.
const DefaultMaxPrewhereConditions = 1

var prewhereOperators = map[string]bool{
	mapping.OpEquals:    true,
	mapping.OpNotEquals: true,
	mapping.OpGT:        true,
	mapping.OpGTE:       true,
	mapping.OpLT:        true,
	mapping.OpLTE:       true,
	mapping.OpIn:        true,
	mapping.OpLike:      true,
	mapping.OpIsNull:    true,
	mapping.OpIsNotNull: true,
}

// PrewhereProcessor hoists selective top-level AND conditions into the
// PREWHERE clause. Candidate columns are listed per storage in priority
// order; a condition qualifies when its operator is hoistable and it touches
// at least one candidate column. Both trees are replaced atomically.
type PrewhereProcessor struct {
	keys          []string
	maxConditions int
}

func NewPrewhereProcessor(keys []string, maxConditions int) *PrewhereProcessor {
	if maxConditions <= 0 {
		maxConditions = DefaultMaxPrewhereConditions
	}
	return &PrewhereProcessor{keys: keys, maxConditions: maxConditions}
}

func (p *PrewhereProcessor) ProcessQuery(_ context.Context, q *models.Query, _ *models.RequestSettings) error {
	if q.Prewhere() != nil || q.Condition() == nil || len(p.keys) == 0 {
		return nil
	}
	conditions := ast.FirstLevelConditions(q.Condition())

	type candidate struct {
		index    int
		priority int
	}
	var candidates []candidate
	for i, c := range conditions {
		basic, ok := c.(*ast.BasicCondition)
		if !ok || !prewhereOperators[basic.Op] {
			continue
		}
		if priority, ok := p.bestPriority(basic); ok {
			candidates = append(candidates, candidate{index: i, priority: priority})
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})
	if len(candidates) > p.maxConditions {
		candidates = candidates[:p.maxConditions]
	}

	hoisted := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		hoisted[c.index] = true
	}
	var prewhere, remaining []ast.Condition
	for i, c := range conditions {
		if hoisted[i] {
			prewhere = append(prewhere, c)
		} else {
			remaining = append(remaining, c)
		}
	}

	q.SetPrewhere(ast.CombineAnd(prewhere))
	q.SetCondition(ast.CombineAnd(remaining))
	return nil
}

// bestPriority returns the lowest key index among the candidate columns the
// condition touches.
func (p *PrewhereProcessor) bestPriority(c *ast.BasicCondition) (int, bool) {
	best := len(p.keys)
	for e := range c.IterateExpressions() {
		col, ok := e.(*ast.Column)
		if !ok {
			continue
		}
		for i, key := range p.keys {
			if col.ColumnName == key && i < best {
				best = i
			}
		}
	}
	return best, best < len(p.keys)
}

package processors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/engine/replacer"
	"github.com/chiselquery/chisel/mapping"
)

// DefaultMaxGroupIDsExclude bounds the injected exclusion list before the
// enforcer falls back to a FINAL read.
const DefaultMaxGroupIDsExclude = 500

// PostReplacementConsistencyEnforcer keeps reads consistent while group
// replacements are still merging. It extracts the project ids the query
// filters on, asks the replacement-state oracle for their flags, and either
// forces a FINAL read or excludes the affected group ids.
//
// The enforcer runs in two modes. Active mode mutates the query and
// propagates oracle failures. Shadow mode computes the same decision but only
// compares it against whatever the caller already put on the query, counting
// matches and mismatches; oracle failures are logged and swallowed so shadow
// traffic never fails a request.
type PostReplacementConsistencyEnforcer struct {
	projectColumn string
	groupColumn   string
	oracle        replacer.Oracle
	logger        *zap.Logger
}

func NewPostReplacementConsistencyEnforcer(projectColumn, groupColumn string, oracle replacer.Oracle, logger *zap.Logger) *PostReplacementConsistencyEnforcer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostReplacementConsistencyEnforcer{
		projectColumn: projectColumn,
		groupColumn:   groupColumn,
		oracle:        oracle,
		logger:        logger,
	}
}

type enforcerDecision struct {
	final          bool
	excludedGroups []int64
}

func (p *PostReplacementConsistencyEnforcer) ProcessQuery(ctx context.Context, q *models.Query, settings *models.RequestSettings) error {
	if settings.Turbo {
		return nil
	}
	projectIDs := models.ProjectIDsInQuery(q, p.projectColumn)
	if len(projectIDs) == 0 {
		return nil
	}

	decision, err := p.decide(ctx, projectIDs, settings)
	if err != nil {
		if settings.ConsistencyEnforcerActive {
			return fmt.Errorf("consistency enforcer: %w", err)
		}
		p.logger.Warn("replacement state lookup failed in shadow mode",
			zap.Int64s("project_ids", projectIDs), zap.Error(err))
		return nil
	}

	if settings.ConsistencyEnforcerActive {
		p.apply(q, decision)
		return nil
	}
	p.compare(q, decision)
	return nil
}

func (p *PostReplacementConsistencyEnforcer) decide(ctx context.Context, projectIDs []int64, settings *models.RequestSettings) (enforcerDecision, error) {
	final, excluded, err := p.oracle.QueryFlags(ctx, projectIDs)
	if err != nil {
		return enforcerDecision{}, err
	}
	if final {
		return enforcerDecision{final: true}, nil
	}
	if len(excluded) == 0 {
		return enforcerDecision{}, nil
	}
	ceiling := settings.MaxGroupIDsExclude
	if ceiling == 0 {
		ceiling = DefaultMaxGroupIDsExclude
	}
	if len(excluded) > ceiling {
		// Past the ceiling a FINAL scan beats an unbounded NOT IN predicate.
		return enforcerDecision{final: true}, nil
	}
	return enforcerDecision{excludedGroups: excluded}, nil
}

func (p *PostReplacementConsistencyEnforcer) apply(q *models.Query, d enforcerDecision) {
	if d.final {
		q.SetFinal(true)
		return
	}
	if len(d.excludedGroups) > 0 {
		q.AddCondition(p.exclusionCondition(d.excludedGroups))
	}
}

func (p *PostReplacementConsistencyEnforcer) exclusionCondition(groups []int64) ast.Condition {
	values := make([]ast.Value, len(groups))
	for i, g := range groups {
		values[i] = g
	}
	return mapping.NotInCondition(
		&ast.FunctionCall{
			Name:       "assumeNotNull",
			Parameters: []ast.Expression{&ast.Column{ColumnName: p.groupColumn}},
		},
		mapping.Literals(values...),
	)
}

// compare checks the decision against the state the legacy caller already
// put on the query and records the outcome, without touching the query.
func (p *PostReplacementConsistencyEnforcer) compare(q *models.Query, d enforcerDecision) {
	existingGroups, conditionCount := p.existingExclusions(q)
	if conditionCount > 1 {
		enforcerComparisons.WithLabelValues(outcomeMultipleGroupConds).Inc()
		return
	}
	if d.final != q.Final() {
		enforcerComparisons.WithLabelValues(outcomeMismatchFinal).Inc()
		return
	}
	if !equalIDSets(d.excludedGroups, existingGroups) {
		enforcerComparisons.WithLabelValues(outcomeMismatchGroupID).Inc()
		return
	}
	enforcerComparisons.WithLabelValues(outcomeMatch).Inc()
}

// existingExclusions scans the top-level AND scope for group exclusion
// conditions of the shape the legacy caller injects.
func (p *PostReplacementConsistencyEnforcer) existingExclusions(q *models.Query) ([]int64, int) {
	cond := q.Condition()
	if cond == nil {
		return nil, 0
	}
	var groups []int64
	count := 0
	for _, c := range ast.FirstLevelConditions(cond) {
		basic, ok := c.(*ast.BasicCondition)
		if !ok || basic.Op != mapping.OpNotIn {
			continue
		}
		if !p.isGroupColumn(basic.LHS) {
			continue
		}
		tuple, ok := basic.RHS.(*ast.FunctionCall)
		if !ok || tuple.Name != "tuple" {
			continue
		}
		count++
		for _, param := range tuple.Parameters {
			lit, ok := param.(*ast.Literal)
			if !ok {
				continue
			}
			switch v := lit.Value.(type) {
			case int64:
				groups = append(groups, v)
			case int:
				groups = append(groups, int64(v))
			}
		}
	}
	return groups, count
}

func (p *PostReplacementConsistencyEnforcer) isGroupColumn(e ast.Expression) bool {
	switch n := e.(type) {
	case *ast.Column:
		return n.ColumnName == p.groupColumn
	case *ast.FunctionCall:
		if n.Name != "assumeNotNull" || len(n.Parameters) != 1 {
			return false
		}
		col, ok := n.Parameters[0].(*ast.Column)
		return ok && col.ColumnName == p.groupColumn
	}
	return false
}

func equalIDSets(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

package processors

import (
	"context"

	"github.com/google/uuid"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/matcher"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/mapping"
)

// UUIDColumnProcessor normalizes comparisons against UUID-typed columns.
// Callers render UUIDs as undashed hex and compare them against
// replaceAll(toString(col), '-', ''); the storage holds native UUIDs, so the
// processor rewrites parseable literals to their canonical dashed form and
// unwraps the column so the comparison runs on the raw value.
type UUIDColumnProcessor struct {
	wrapped matcher.Pattern
}

// NewUUIDColumnProcessor builds a processor for the given UUID-typed column
// names.
func NewUUIDColumnProcessor(columns ...string) *UUIDColumnProcessor {
	col := matcher.Param{
		Name:    "col",
		Pattern: matcher.Column{ColumnName: matcher.AnyOfStrings(columns...)},
	}
	return &UUIDColumnProcessor{
		wrapped: matcher.FunctionCall{
			Name: matcher.Exact{Value: "replaceAll"},
			Parameters: []matcher.Pattern{
				matcher.FunctionCall{
					Name:       matcher.Exact{Value: "toString"},
					Parameters: []matcher.Pattern{col},
				},
				matcher.Literal{Value: matcher.Exact{Value: "-"}},
				matcher.Literal{Value: matcher.Exact{Value: ""}},
			},
		},
	}
}

func (p *UUIDColumnProcessor) ProcessQuery(_ context.Context, q *models.Query, _ *models.RequestSettings) error {
	rewrite := func(c *ast.BasicCondition) ast.Condition {
		if out, ok := p.rewriteCondition(c); ok {
			return out
		}
		return c
	}
	if cond := q.Condition(); cond != nil {
		q.SetCondition(ast.MapConditions(cond, rewrite))
	}
	if pre := q.Prewhere(); pre != nil {
		q.SetPrewhere(ast.MapConditions(pre, rewrite))
	}
	return nil
}

// rewriteCondition returns the normalized condition and true when it acted.
func (p *UUIDColumnProcessor) rewriteCondition(c *ast.BasicCondition) (ast.Condition, bool) {
	switch c.Op {
	case mapping.OpIn, mapping.OpNotIn:
		return p.rewriteTuple(c)
	case mapping.OpEquals, mapping.OpNotEquals, mapping.OpGT, mapping.OpGTE, mapping.OpLT, mapping.OpLTE:
		if out, ok := p.rewriteBinary(c.LHS, c.Op, c.RHS, false); ok {
			return out, true
		}
		return p.rewriteBinary(c.RHS, c.Op, c.LHS, true)
	}
	return nil, false
}

func (p *UUIDColumnProcessor) rewriteTuple(c *ast.BasicCondition) (ast.Condition, bool) {
	match := p.wrapped.Match(c.LHS)
	if match == nil {
		return nil, false
	}
	tuple, ok := c.RHS.(*ast.FunctionCall)
	if !ok || tuple.Name != "tuple" {
		return nil, false
	}
	items := make([]ast.Expression, len(tuple.Parameters))
	rewroteAny := false
	for i, param := range tuple.Parameters {
		lit, ok := param.(*ast.Literal)
		if !ok {
			// A non-literal member means the tuple cannot be normalized
			// consistently; abandon the whole condition.
			return nil, false
		}
		if canonical, ok := canonicalUUID(lit.Value); ok {
			items[i] = &ast.Literal{Alias: lit.Alias, Value: canonical}
			rewroteAny = true
		} else {
			items[i] = ast.Clone(lit)
		}
	}
	if !rewroteAny {
		return nil, false
	}
	return &ast.BasicCondition{
		LHS: ast.Clone(match.Expression("col")),
		Op:  c.Op,
		RHS: &ast.FunctionCall{Alias: tuple.Alias, Name: "tuple", Parameters: items},
	}, true
}

// rewriteBinary handles one orientation of a comparison; flipped reports that
// the wrapped column sat on the right.
func (p *UUIDColumnProcessor) rewriteBinary(wrappedSide ast.Expression, op string, literalSide ast.Expression, flipped bool) (ast.Condition, bool) {
	match := p.wrapped.Match(wrappedSide)
	if match == nil {
		return nil, false
	}
	lit, ok := literalSide.(*ast.Literal)
	if !ok {
		return nil, false
	}
	canonical, ok := canonicalUUID(lit.Value)
	if !ok {
		return nil, false
	}
	col := ast.Clone(match.Expression("col"))
	value := &ast.Literal{Alias: lit.Alias, Value: canonical}
	if flipped {
		return &ast.BasicCondition{LHS: value, Op: op, RHS: col}, true
	}
	return &ast.BasicCondition{LHS: col, Op: op, RHS: value}, true
}

func canonicalUUID(v ast.Value) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

package processors

import (
	"context"
	"strconv"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/matcher"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/mapping"
)

// HexIntColumnProcessor rewrites comparisons against columns stored as
// unsigned integers but queried as hex strings, like span ids. Callers
// compare against lower(hex(col)); the processor parses the literal as a
// base-16 integer and unwraps the column. Literals that do not parse leave
// the condition untouched.
type HexIntColumnProcessor struct {
	wrapped matcher.Pattern
}

func NewHexIntColumnProcessor(columns ...string) *HexIntColumnProcessor {
	col := matcher.Param{
		Name:    "col",
		Pattern: matcher.Column{ColumnName: matcher.AnyOfStrings(columns...)},
	}
	return &HexIntColumnProcessor{
		wrapped: matcher.FunctionCall{
			Name: matcher.Exact{Value: "lower"},
			Parameters: []matcher.Pattern{
				matcher.FunctionCall{
					Name:       matcher.Exact{Value: "hex"},
					Parameters: []matcher.Pattern{col},
				},
			},
		},
	}
}

func (p *HexIntColumnProcessor) ProcessQuery(_ context.Context, q *models.Query, _ *models.RequestSettings) error {
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

func (p *HexIntColumnProcessor) rewriteCondition(c *ast.BasicCondition) (ast.Condition, bool) {
	match := p.wrapped.Match(c.LHS)
	if match == nil {
		return nil, false
	}
	col := ast.Clone(match.Expression("col"))
	switch c.Op {
	case mapping.OpEquals, mapping.OpNotEquals:
		lit, ok := c.RHS.(*ast.Literal)
		if !ok {
			return nil, false
		}
		value, ok := hexValue(lit.Value)
		if !ok {
			return nil, false
		}
		return &ast.BasicCondition{
			LHS: col,
			Op:  c.Op,
			RHS: &ast.Literal{Alias: lit.Alias, Value: value},
		}, true
	case mapping.OpIn, mapping.OpNotIn:
		tuple, ok := c.RHS.(*ast.FunctionCall)
		if !ok || tuple.Name != "tuple" {
			return nil, false
		}
		items := make([]ast.Expression, len(tuple.Parameters))
		for i, param := range tuple.Parameters {
			lit, ok := param.(*ast.Literal)
			if !ok {
				return nil, false
			}
			value, ok := hexValue(lit.Value)
			if !ok {
				return nil, false
			}
			items[i] = &ast.Literal{Alias: lit.Alias, Value: value}
		}
		return &ast.BasicCondition{
			LHS: col,
			Op:  c.Op,
			RHS: &ast.FunctionCall{Alias: tuple.Alias, Name: "tuple", Parameters: items},
		}, true
	}
	return nil, false
}

func hexValue(v ast.Value) (uint64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

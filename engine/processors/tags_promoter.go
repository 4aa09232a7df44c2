package processors

import (
	"context"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/matcher"
	"github.com/chiselquery/chisel/engine/models"
)

// TagsPromoter replaces nested tag lookups with reads of the dedicated
// columns some tag keys were promoted to. A lookup that has already been
// translated to arrayElement(tags.value, indexOf(tags.key, 'x')) becomes the
// promoted column for 'x', wrapped in toString when the physical column is
// not a String so the expression keeps its comparison semantics.
type TagsPromoter struct {
	pattern    matcher.Pattern
	promotions map[string]PromotedColumn
}

// PromotedColumn names the physical column a tag key was promoted to.
type PromotedColumn struct {
	Name string
	// NonString marks columns whose physical type requires a toString wrap.
	NonString bool
}

func NewTagsPromoter(nestedColumn string, promotions map[string]PromotedColumn) *TagsPromoter {
	return &TagsPromoter{
		pattern: matcher.FunctionCall{
			Name: matcher.Exact{Value: "arrayElement"},
			Parameters: []matcher.Pattern{
				matcher.Column{ColumnName: matcher.Exact{Value: nestedColumn + ".value"}},
				matcher.FunctionCall{
					Name: matcher.Exact{Value: "indexOf"},
					Parameters: []matcher.Pattern{
						matcher.Column{ColumnName: matcher.Exact{Value: nestedColumn + ".key"}},
						matcher.Param{Name: "key", Pattern: matcher.Literal{Value: matcher.AnyScalar{}}},
					},
				},
			},
			WithOptionals: true,
		},
		promotions: promotions,
	}
}

func (p *TagsPromoter) ProcessQuery(_ context.Context, q *models.Query, _ *models.RequestSettings) error {
	q.TransformExpressions(p.promote)
	return nil
}

func (p *TagsPromoter) promote(e ast.Expression) ast.Expression {
	match := p.pattern.Match(e)
	if match == nil {
		return e
	}
	lit, ok := match.Expression("key").(*ast.Literal)
	if !ok {
		return e
	}
	key, ok := lit.Value.(string)
	if !ok {
		return e
	}
	promoted, ok := p.promotions[key]
	if !ok {
		return e
	}
	alias := ast.AliasOf(e)
	if !promoted.NonString {
		return &ast.Column{Alias: alias, ColumnName: promoted.Name}
	}
	return &ast.FunctionCall{
		Alias:      alias,
		Name:       "toString",
		Parameters: []ast.Expression{&ast.Column{ColumnName: promoted.Name}},
	}
}

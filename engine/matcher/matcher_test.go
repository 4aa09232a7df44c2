package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiselquery/chisel/engine/ast"
)

func TestColumnCapture(t *testing.T) {
	pattern := FunctionCall{
		Name: Exact{Value: "toString"},
		Parameters: []Pattern{
			Param{Name: "col", Pattern: Column{ColumnName: AnyString{}}},
		},
	}

	input := &ast.FunctionCall{
		Name:       "toString",
		Parameters: []ast.Expression{&ast.Column{ColumnName: "event_id"}},
	}

	result := pattern.Match(input)
	require.NotNil(t, result)
	require.True(t, result.Contains("col"))
	captured, ok := result.Expression("col").(*ast.Column)
	require.True(t, ok)
	assert.Equal(t, "event_id", captured.ColumnName)
}

func TestMismatchReturnsNil(t *testing.T) {
	exprs := []ast.Expression{
		&ast.Column{ColumnName: "a"},
		&ast.Literal{Value: int64(7)},
		&ast.FunctionCall{Name: "f", Parameters: []ast.Expression{&ast.Column{ColumnName: "a"}}},
		&ast.CurriedFunctionCall{Function: &ast.FunctionCall{Name: "quantile"}},
		&ast.SubscriptableReference{Column: &ast.Column{ColumnName: "tags"}, Key: &ast.Literal{Value: "k"}},
		&ast.Lambda{Parameters: []string{"x"}, Body: &ast.Argument{Name: "x"}},
	}
	patterns := []Pattern{
		Column{ColumnName: Exact{Value: "zzz"}},
		Literal{Value: Exact{Value: "other"}},
		FunctionCall{Name: Exact{Value: "g"}},
		FunctionCall{Name: Exact{Value: "f"}, Parameters: []Pattern{Literal{}}},
		Subscriptable{Column: &Column{ColumnName: Exact{Value: "contexts"}}},
		AnyExpression{},
	}

	// Every pattern against every expression: a result or nil, never a panic.
	for _, p := range patterns {
		for _, e := range exprs {
			assert.NotPanics(t, func() { p.Match(e) })
		}
	}
}

func TestOrTakesFirstMatch(t *testing.T) {
	pattern := AnyOf(
		Column{ColumnName: Exact{Value: "a"}},
		Param{Name: "other", Pattern: AnyExpression{}},
	)

	result := pattern.Match(&ast.Column{ColumnName: "a"})
	require.NotNil(t, result)
	assert.False(t, result.Contains("other"))

	result = pattern.Match(&ast.Literal{Value: int64(1)})
	require.NotNil(t, result)
	assert.True(t, result.Contains("other"))
}

func TestAnyOfStrings(t *testing.T) {
	pattern := Column{ColumnName: AnyOfStrings("event_id", "trace_id")}
	assert.NotNil(t, pattern.Match(&ast.Column{ColumnName: "trace_id"}))
	assert.Nil(t, pattern.Match(&ast.Column{ColumnName: "span_id"}))
}

func TestFunctionCallWithOptionals(t *testing.T) {
	pattern := FunctionCall{
		Name:          Exact{Value: "arrayElement"},
		Parameters:    []Pattern{Column{ColumnName: Exact{Value: "tags.value"}}},
		WithOptionals: true,
	}

	input := &ast.FunctionCall{
		Alias: "ignored",
		Name:  "arrayElement",
		Parameters: []ast.Expression{
			&ast.Column{ColumnName: "tags.value"},
			&ast.Literal{Value: int64(1)},
		},
	}
	assert.NotNil(t, pattern.Match(input))

	// Without the flag the extra parameter is a mismatch.
	strict := FunctionCall{
		Name:       Exact{Value: "arrayElement"},
		Parameters: []Pattern{Column{ColumnName: Exact{Value: "tags.value"}}},
	}
	assert.Nil(t, strict.Match(input))
}

func TestStringParamCapturesScalar(t *testing.T) {
	pattern := FunctionCall{
		Name: StringParam{Name: "fn", Pattern: AnyOfStrings("uniq", "count")},
	}
	result := pattern.Match(&ast.FunctionCall{Name: "uniq"})
	require.NotNil(t, result)
	assert.Equal(t, "uniq", result.Scalar("fn"))
}

func TestOptionalStringMatchesAbsentField(t *testing.T) {
	pattern := Column{TableName: OptionalString{Value: ""}, ColumnName: Exact{Value: "a"}}
	assert.NotNil(t, pattern.Match(&ast.Column{ColumnName: "a"}))
	assert.Nil(t, pattern.Match(&ast.Column{TableName: "t", ColumnName: "a"}))
}

func TestFirstBindingWins(t *testing.T) {
	pattern := FunctionCall{
		Name: Exact{Value: "f"},
		Parameters: []Pattern{
			Param{Name: "p", Pattern: AnyExpression{}},
			Param{Name: "p", Pattern: AnyExpression{}},
		},
	}
	result := pattern.Match(&ast.FunctionCall{
		Name: "f",
		Parameters: []ast.Expression{
			&ast.Column{ColumnName: "first"},
			&ast.Column{ColumnName: "second"},
		},
	})
	require.NotNil(t, result)
	assert.Equal(t, "first", result.Expression("p").(*ast.Column).ColumnName)
}

func TestAbsentCapturePanics(t *testing.T) {
	result := AnyExpression{}.Match(&ast.Literal{})
	require.NotNil(t, result)
	assert.False(t, result.Contains("missing"))
	assert.Panics(t, func() { result.Expression("missing") })
	assert.Panics(t, func() { result.Scalar("missing") })
}

func TestNilResultContains(t *testing.T) {
	var result *MatchResult
	assert.False(t, result.Contains("anything"))
}

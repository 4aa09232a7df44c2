package translator

import (
	"fmt"

	"github.com/chiselquery/chisel/engine/ast"
)

// DefaultRules returns the fallback rule set appended to every registry by
// NewRuleBasedTranslator. Leaves are re-materialized as fresh copies, never
// returned as the input node; composite kinds rebuild themselves around
// recursively translated children.
func DefaultRules() TranslationRules {
	return TranslationRules{
		Columns:          []ColumnMapper{defaultColumnMapper{}},
		Literals:         []LiteralMapper{defaultLiteralMapper{}},
		Arguments:        []ArgumentMapper{defaultArgumentMapper{}},
		Functions:        []FunctionCallMapper{defaultFunctionMapper{}},
		CurriedFunctions: []CurriedFunctionCallMapper{defaultCurriedFunctionMapper{}},
		Subscriptables:   []SubscriptableMapper{defaultSubscriptableMapper{}},
		Lambdas:          []LambdaMapper{defaultLambdaMapper{}},
	}
}

type defaultColumnMapper struct{}

func (defaultColumnMapper) AttemptMap(e *ast.Column, _ ExpressionTranslator) (ast.Expression, error) {
	return ast.Clone(e), nil
}

type defaultLiteralMapper struct{}

func (defaultLiteralMapper) AttemptMap(e *ast.Literal, _ ExpressionTranslator) (ast.Expression, error) {
	return ast.Clone(e), nil
}

type defaultArgumentMapper struct{}

func (defaultArgumentMapper) AttemptMap(e *ast.Argument, _ ExpressionTranslator) (ast.Expression, error) {
	return ast.Clone(e), nil
}

type defaultFunctionMapper struct{}

func (defaultFunctionMapper) AttemptMap(e *ast.FunctionCall, children ExpressionTranslator) (ast.Expression, error) {
	params, err := translateAll(e.Parameters, children)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Alias: e.Alias, Name: e.Name, Parameters: params}, nil
}

type defaultCurriedFunctionMapper struct{}

func (defaultCurriedFunctionMapper) AttemptMap(e *ast.CurriedFunctionCall, children ExpressionTranslator) (ast.Expression, error) {
	inner, err := children.TranslateFunctionCallStrict(e.Function)
	if err != nil {
		return nil, err
	}
	params, err := translateAll(e.Parameters, children)
	if err != nil {
		return nil, err
	}
	return &ast.CurriedFunctionCall{Alias: e.Alias, Function: inner, Parameters: params}, nil
}

type defaultSubscriptableMapper struct{}

func (defaultSubscriptableMapper) AttemptMap(e *ast.SubscriptableReference, children ExpressionTranslator) (ast.Expression, error) {
	column, err := children.TranslateExpression(e.Column)
	if err != nil {
		return nil, err
	}
	col, ok := column.(*ast.Column)
	if !ok {
		return nil, fmt.Errorf("subscriptable column %q mapped to %T: %w",
			e.Column.ColumnName, column, ErrStructuralIntegrity)
	}
	key, err := children.TranslateExpression(e.Key)
	if err != nil {
		return nil, err
	}
	lit, ok := key.(*ast.Literal)
	if !ok {
		return nil, fmt.Errorf("subscriptable key of %q mapped to %T: %w",
			e.Column.ColumnName, key, ErrStructuralIntegrity)
	}
	return &ast.SubscriptableReference{Alias: e.Alias, Column: col, Key: lit}, nil
}

type defaultLambdaMapper struct{}

func (defaultLambdaMapper) AttemptMap(e *ast.Lambda, children ExpressionTranslator) (ast.Expression, error) {
	body, err := children.TranslateExpression(e.Body)
	if err != nil {
		return nil, err
	}
	params := make([]string, len(e.Parameters))
	copy(params, e.Parameters)
	return &ast.Lambda{Alias: e.Alias, Parameters: params, Body: body}, nil
}

func translateAll(exprs []ast.Expression, children ExpressionTranslator) ([]ast.Expression, error) {
	out := make([]ast.Expression, len(exprs))
	for i, p := range exprs {
		translated, err := children.TranslateExpression(p)
		if err != nil {
			return nil, err
		}
		out[i] = translated
	}
	return out, nil
}

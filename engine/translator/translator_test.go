package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/mapping"
)

func TestDefaultRulesAreIdentityWithFreshCopies(t *testing.T) {
	inputs := []ast.Expression{
		&ast.Column{Alias: "a", TableName: "t", ColumnName: "c"},
		&ast.Literal{Value: "x"},
		&ast.Argument{Name: "arg"},
		&ast.FunctionCall{Name: "f", Parameters: []ast.Expression{&ast.Column{ColumnName: "c"}}},
		&ast.CurriedFunctionCall{
			Function:   &ast.FunctionCall{Name: "quantile", Parameters: []ast.Expression{&ast.Literal{Value: 0.9}}},
			Parameters: []ast.Expression{&ast.Column{ColumnName: "duration"}},
		},
		&ast.SubscriptableReference{Column: &ast.Column{ColumnName: "tags"}, Key: &ast.Literal{Value: "k"}},
		&ast.Lambda{Parameters: []string{"x"}, Body: &ast.Argument{Name: "x"}},
		&ast.AliasedExpression{Alias: "label", Inner: &ast.Column{ColumnName: "c"}},
	}

	tr := NewRuleBasedTranslator(TranslationRules{})
	for _, input := range inputs {
		out, err := tr.TranslateExpression(input)
		require.NoError(t, err)
		assert.True(t, ast.Equal(input, out), "expected structural identity for %T", input)
		assert.NotSame(t, input, out, "output must not alias the input for %T", input)
	}
}

func TestDefaultRulesCopyNestedNodes(t *testing.T) {
	inner := &ast.Column{ColumnName: "c"}
	input := &ast.FunctionCall{Name: "f", Parameters: []ast.Expression{inner}}

	out, err := NewRuleBasedTranslator(TranslationRules{}).TranslateExpression(input)
	require.NoError(t, err)
	fc, ok := out.(*ast.FunctionCall)
	require.True(t, ok)
	assert.NotSame(t, inner, fc.Parameters[0])
}

func TestConcatComposesIndependentRuleSets(t *testing.T) {
	setA := TranslationRules{Columns: []ColumnMapper{
		ColumnToColumn{FromCol: "col", ToCol: "col2"},
	}}
	setB := TranslationRules{Columns: []ColumnMapper{
		ColumnToColumn{FromCol: "cola", ToCol: "colb"},
	}}

	untouched := &ast.Column{ColumnName: "other"}
	input := &ast.FunctionCall{Name: "f", Parameters: []ast.Expression{
		&ast.Column{ColumnName: "col"},
		&ast.Column{ColumnName: "cola"},
		untouched,
	}}

	out, err := NewRuleBasedTranslator(setA.Concat(setB)).TranslateExpression(input)
	require.NoError(t, err)
	fc := out.(*ast.FunctionCall)
	assert.Equal(t, "col2", fc.Parameters[0].(*ast.Column).ColumnName)
	assert.Equal(t, "colb", fc.Parameters[1].(*ast.Column).ColumnName)
	assert.Equal(t, "other", fc.Parameters[2].(*ast.Column).ColumnName)
	assert.NotSame(t, untouched, fc.Parameters[2])
}

func TestConcatPreservesOrderWithinKind(t *testing.T) {
	first := TranslationRules{Columns: []ColumnMapper{
		ColumnToColumn{FromCol: "c", ToCol: "from_first"},
	}}
	second := TranslationRules{Columns: []ColumnMapper{
		ColumnToColumn{FromCol: "c", ToCol: "from_second"},
	}}

	out, err := NewRuleBasedTranslator(first.Concat(second)).
		TranslateExpression(&ast.Column{ColumnName: "c"})
	require.NoError(t, err)
	assert.Equal(t, "from_first", out.(*ast.Column).ColumnName)
}

// functionToColumn deliberately violates the strict contract by mapping a
// function call to a column.
type functionToColumn struct{ name string }

func (r functionToColumn) AttemptMap(e *ast.FunctionCall, _ ExpressionTranslator) (ast.Expression, error) {
	if e.Name != r.name {
		return nil, nil
	}
	return &ast.Column{ColumnName: r.name}, nil
}

func TestCurriedInnerMustStayFunctionCall(t *testing.T) {
	rules := TranslationRules{Functions: []FunctionCallMapper{functionToColumn{name: "quantile"}}}
	input := &ast.CurriedFunctionCall{
		Function:   &ast.FunctionCall{Name: "quantile", Parameters: []ast.Expression{&ast.Literal{Value: 0.9}}},
		Parameters: []ast.Expression{&ast.Column{ColumnName: "duration"}},
	}

	_, err := NewRuleBasedTranslator(rules).TranslateExpression(input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralIntegrity)
}

func TestBareRegistryReportsUnresolved(t *testing.T) {
	_, err := NewBareTranslator(TranslationRules{}).
		TranslateExpression(&ast.Column{ColumnName: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedTranslation)
}

func TestColumnToFunctionRule(t *testing.T) {
	rules := TranslationRules{Columns: []ColumnMapper{
		ColumnToFunction{FromCol: "group_id", Wrapper: "assumeNotNull", ToCol: "group_id"},
	}}
	out, err := NewRuleBasedTranslator(rules).
		TranslateExpression(&ast.Column{Alias: "g", ColumnName: "group_id"})
	require.NoError(t, err)

	fc, ok := out.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "assumeNotNull", fc.Name)
	assert.Equal(t, "g", fc.Alias)
	assert.Equal(t, "group_id", fc.Parameters[0].(*ast.Column).ColumnName)
}

func TestTagMapperRule(t *testing.T) {
	rules := TranslationRules{Subscriptables: []SubscriptableMapper{
		TagMapper{FromColumn: "tags", ToColumn: "tags"},
	}}
	input := &ast.SubscriptableReference{
		Alias:  "environment",
		Column: &ast.Column{ColumnName: "tags"},
		Key:    &ast.Literal{Value: "environment"},
	}

	out, err := NewRuleBasedTranslator(rules).TranslateExpression(input)
	require.NoError(t, err)

	expected := &ast.FunctionCall{
		Alias: "environment",
		Name:  "arrayElement",
		Parameters: []ast.Expression{
			&ast.Column{ColumnName: "tags.value"},
			&ast.FunctionCall{Name: "indexOf", Parameters: []ast.Expression{
				&ast.Column{ColumnName: "tags.key"},
				&ast.Literal{Value: "environment"},
			}},
		},
	}
	assert.True(t, ast.Equal(expected, out), "got %#v", out)
}

func TestTranslateConditionTree(t *testing.T) {
	rules := TranslationRules{
		Columns: []ColumnMapper{
			ColumnToColumn{FromCol: "message", ToCol: "search_message"},
		},
		Subscriptables: []SubscriptableMapper{
			TagMapper{FromColumn: "tags", ToColumn: "tags"},
		},
	}

	input := &ast.AndCondition{Conditions: []ast.Condition{
		&ast.BasicCondition{
			LHS: &ast.Column{ColumnName: "message"},
			Op:  mapping.OpLike,
			RHS: &ast.Literal{Value: "%panic%"},
		},
		&ast.OrCondition{Conditions: []ast.Condition{
			&ast.BasicCondition{
				LHS: &ast.SubscriptableReference{
					Column: &ast.Column{ColumnName: "tags"},
					Key:    &ast.Literal{Value: "environment"},
				},
				Op:  mapping.OpEquals,
				RHS: &ast.Literal{Value: "prod"},
			},
			&ast.BasicCondition{
				LHS: &ast.Column{ColumnName: "project_id"},
				Op:  mapping.OpEquals,
				RHS: &ast.Literal{Value: int64(1)},
			},
		}},
	}}

	out, err := NewRuleBasedTranslator(rules).TranslateCondition(input)
	require.NoError(t, err)

	and, ok := out.(*ast.AndCondition)
	require.True(t, ok)
	require.Len(t, and.Conditions, 2)

	first := and.Conditions[0].(*ast.BasicCondition)
	assert.Equal(t, "search_message", first.LHS.(*ast.Column).ColumnName)
	assert.Equal(t, mapping.OpLike, first.Op)

	or := and.Conditions[1].(*ast.OrCondition)
	tagLookup := or.Conditions[0].(*ast.BasicCondition).LHS.(*ast.FunctionCall)
	assert.Equal(t, "arrayElement", tagLookup.Name)
	untouched := or.Conditions[1].(*ast.BasicCondition)
	assert.Equal(t, "project_id", untouched.LHS.(*ast.Column).ColumnName)
}

func TestMultiStepTranslator(t *testing.T) {
	pre := NewRuleBasedTranslator(TranslationRules{Columns: []ColumnMapper{
		ColumnToColumn{FromCol: "a", ToCol: "b"},
	}})
	bridge := NewRuleBasedTranslator(TranslationRules{Columns: []ColumnMapper{
		ColumnToColumn{FromCol: "b", ToCol: "c"},
	}})
	post := NewRuleBasedTranslator(TranslationRules{Columns: []ColumnMapper{
		ColumnToColumn{FromCol: "c", ToCol: "d"},
	}})

	m := NewMultiStepTranslator([]ExpressionTranslator{pre}, bridge, []ExpressionTranslator{post})
	out, err := m.TranslateExpression(&ast.Column{ColumnName: "a"})
	require.NoError(t, err)
	assert.Equal(t, "d", out.(*ast.Column).ColumnName)
}

func TestFunctionNameMapperTranslatesParameters(t *testing.T) {
	rules := TranslationRules{
		Columns:   []ColumnMapper{ColumnToColumn{FromCol: "user", ToCol: "user_hash"}},
		Functions: []FunctionCallMapper{FunctionNameMapper{From: "uniq", To: "uniqCombined"}},
	}
	input := &ast.FunctionCall{
		Alias:      "users",
		Name:       "uniq",
		Parameters: []ast.Expression{&ast.Column{ColumnName: "user"}},
	}

	out, err := NewRuleBasedTranslator(rules).TranslateExpression(input)
	require.NoError(t, err)
	fc := out.(*ast.FunctionCall)
	assert.Equal(t, "uniqCombined", fc.Name)
	assert.Equal(t, "users", fc.Alias)
	assert.Equal(t, "user_hash", fc.Parameters[0].(*ast.Column).ColumnName)
}

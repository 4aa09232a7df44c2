// Package translator turns one expression tree into another through ordered
// lists of rewrite rules, one list per node kind. Rules from independent
// sources compose by concatenation, and a fixed set of default rules
// guarantees every node kind always has an applicable fallback.
package translator

import (
	"errors"
	"fmt"

	"github.com/chiselquery/chisel/engine/ast"
)

// ErrUnresolvedTranslation means no rule, including the defaults, accepted a
// node. It is a configuration defect: a correctly assembled registry always
// carries a default per kind.
var ErrUnresolvedTranslation = errors.New("no translation rule matched")

// ErrStructuralIntegrity means a rule produced a node of the wrong kind in a
// context that requires a specific one, such as the inner function of a
// curried call mapping to something other than a function call.
var ErrStructuralIntegrity = errors.New("structural integrity violation")

// ExpressionTranslator is the surface a rule receives to translate the
// children of the node it is mapping. A rule never knows which concrete rule
// will handle each child.
type ExpressionTranslator interface {
	TranslateExpression(e ast.Expression) (ast.Expression, error)

	// TranslateFunctionCallStrict translates a function call in a context
	// where the result must stay a function call. Any other output kind is
	// reported as ErrStructuralIntegrity.
	TranslateFunctionCallStrict(fc *ast.FunctionCall) (*ast.FunctionCall, error)
}

// A mapper translates one node kind. Inapplicability is signaled by a nil
// expression with a nil error, never by an error: the translator simply
// tries the next rule. Errors are reserved for failures while translating
// children.
type (
	ColumnMapper interface {
		AttemptMap(e *ast.Column, children ExpressionTranslator) (ast.Expression, error)
	}
	LiteralMapper interface {
		AttemptMap(e *ast.Literal, children ExpressionTranslator) (ast.Expression, error)
	}
	ArgumentMapper interface {
		AttemptMap(e *ast.Argument, children ExpressionTranslator) (ast.Expression, error)
	}
	FunctionCallMapper interface {
		AttemptMap(e *ast.FunctionCall, children ExpressionTranslator) (ast.Expression, error)
	}
	CurriedFunctionCallMapper interface {
		AttemptMap(e *ast.CurriedFunctionCall, children ExpressionTranslator) (ast.Expression, error)
	}
	SubscriptableMapper interface {
		AttemptMap(e *ast.SubscriptableReference, children ExpressionTranslator) (ast.Expression, error)
	}
	LambdaMapper interface {
		AttemptMap(e *ast.Lambda, children ExpressionTranslator) (ast.Expression, error)
	}
)

// TranslationRules is the registry configuring a RuleBasedTranslator: one
// ordered rule list per expression kind. A zero value is a valid empty
// registry.
type TranslationRules struct {
	Columns          []ColumnMapper
	Literals         []LiteralMapper
	Arguments        []ArgumentMapper
	Functions        []FunctionCallMapper
	CurriedFunctions []CurriedFunctionCallMapper
	Subscriptables   []SubscriptableMapper
	Lambdas          []LambdaMapper
}

// Concat builds a new registry whose per-kind lists are the receiver's rules
// followed by other's. It is associative and order-preserving, which is what
// lets independently authored rule sets (one per joined storage, or caller
// rules layered ahead of defaults) run in a single pass.
func (r TranslationRules) Concat(other TranslationRules) TranslationRules {
	return TranslationRules{
		Columns:          append(append([]ColumnMapper{}, r.Columns...), other.Columns...),
		Literals:         append(append([]LiteralMapper{}, r.Literals...), other.Literals...),
		Arguments:        append(append([]ArgumentMapper{}, r.Arguments...), other.Arguments...),
		Functions:        append(append([]FunctionCallMapper{}, r.Functions...), other.Functions...),
		CurriedFunctions: append(append([]CurriedFunctionCallMapper{}, r.CurriedFunctions...), other.CurriedFunctions...),
		Subscriptables:   append(append([]SubscriptableMapper{}, r.Subscriptables...), other.Subscriptables...),
		Lambdas:          append(append([]LambdaMapper{}, r.Lambdas...), other.Lambdas...),
	}
}

// RuleBasedTranslator dispatches every node to its kind's rule list and
// applies the first rule that accepts it, passing itself back in so rules
// can translate children recursively. Immutable after construction and safe
// to share across concurrent translations.
type RuleBasedTranslator struct {
	rules TranslationRules
}

// NewRuleBasedTranslator builds a translator from the given rules extended
// with the default rules, so translation of a well-formed tree cannot fail
// with ErrUnresolvedTranslation.
func NewRuleBasedTranslator(rules TranslationRules) *RuleBasedTranslator {
	return &RuleBasedTranslator{rules: rules.Concat(DefaultRules())}
}

// NewBareTranslator builds a translator from exactly the rules given, with
// no defaults appended. A registry missing a fallback for some kind will
// surface ErrUnresolvedTranslation at translation time.
func NewBareTranslator(rules TranslationRules) *RuleBasedTranslator {
	return &RuleBasedTranslator{rules: rules}
}

// TranslateExpression dispatches e to the rule list for its kind.
func (t *RuleBasedTranslator) TranslateExpression(e ast.Expression) (ast.Expression, error) {
	return e.Accept(t)
}

// TranslateFunctionCallStrict implements the strict obligation: the output
// of translating fc must itself be a function call.
func (t *RuleBasedTranslator) TranslateFunctionCallStrict(fc *ast.FunctionCall) (*ast.FunctionCall, error) {
	out, err := t.VisitFunctionCall(fc)
	if err != nil {
		return nil, err
	}
	mapped, ok := out.(*ast.FunctionCall)
	if !ok {
		return nil, fmt.Errorf("function %q mapped to %T in a strict context: %w",
			fc.Name, out, ErrStructuralIntegrity)
	}
	return mapped, nil
}

// TranslateCondition rebuilds the condition tree, translating every
// expression through the rule registry. The AND/OR structure is preserved.
func (t *RuleBasedTranslator) TranslateCondition(c ast.Condition) (ast.Condition, error) {
	if c == nil {
		return nil, nil
	}
	switch n := c.(type) {
	case *ast.BasicCondition:
		lhs, err := t.TranslateExpression(n.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := t.TranslateExpression(n.RHS)
		if err != nil {
			return nil, err
		}
		return &ast.BasicCondition{LHS: lhs, Op: n.Op, RHS: rhs}, nil
	case *ast.AndCondition:
		out, err := t.translateOperands(n.Conditions)
		if err != nil {
			return nil, err
		}
		return &ast.AndCondition{Conditions: out}, nil
	case *ast.OrCondition:
		out, err := t.translateOperands(n.Conditions)
		if err != nil {
			return nil, err
		}
		return &ast.OrCondition{Conditions: out}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %T: %w", c, ErrUnresolvedTranslation)
	}
}

func (t *RuleBasedTranslator) translateOperands(conds []ast.Condition) ([]ast.Condition, error) {
	out := make([]ast.Condition, len(conds))
	for i, c := range conds {
		translated, err := t.TranslateCondition(c)
		if err != nil {
			return nil, err
		}
		out[i] = translated
	}
	return out, nil
}

// The ast.Visitor implementation below is the per-kind dispatch. Each
// method walks its rule list in order and returns the first non-nil result.

func (t *RuleBasedTranslator) VisitColumn(e *ast.Column) (ast.Expression, error) {
	for _, r := range t.rules.Columns {
		out, err := r.AttemptMap(e, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("column %q: %w", e.ColumnName, ErrUnresolvedTranslation)
}

func (t *RuleBasedTranslator) VisitLiteral(e *ast.Literal) (ast.Expression, error) {
	for _, r := range t.rules.Literals {
		out, err := r.AttemptMap(e, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("literal %v: %w", e.Value, ErrUnresolvedTranslation)
}

func (t *RuleBasedTranslator) VisitArgument(e *ast.Argument) (ast.Expression, error) {
	for _, r := range t.rules.Arguments {
		out, err := r.AttemptMap(e, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("argument %q: %w", e.Name, ErrUnresolvedTranslation)
}

func (t *RuleBasedTranslator) VisitFunctionCall(e *ast.FunctionCall) (ast.Expression, error) {
	for _, r := range t.rules.Functions {
		out, err := r.AttemptMap(e, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("function %q: %w", e.Name, ErrUnresolvedTranslation)
}

func (t *RuleBasedTranslator) VisitCurriedFunctionCall(e *ast.CurriedFunctionCall) (ast.Expression, error) {
	for _, r := range t.rules.CurriedFunctions {
		out, err := r.AttemptMap(e, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("curried function %q: %w", e.Function.Name, ErrUnresolvedTranslation)
}

func (t *RuleBasedTranslator) VisitSubscriptableReference(e *ast.SubscriptableReference) (ast.Expression, error) {
	for _, r := range t.rules.Subscriptables {
		out, err := r.AttemptMap(e, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("subscriptable %q: %w", e.Column.ColumnName, ErrUnresolvedTranslation)
}

func (t *RuleBasedTranslator) VisitLambda(e *ast.Lambda) (ast.Expression, error) {
	for _, r := range t.rules.Lambdas {
		out, err := r.AttemptMap(e, t)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("lambda: %w", ErrUnresolvedTranslation)
}

// Aliased expressions are a naming wrapper, not a translation target: the
// inner expression is translated and the label carried over.
func (t *RuleBasedTranslator) VisitAliasedExpression(e *ast.AliasedExpression) (ast.Expression, error) {
	inner, err := t.TranslateExpression(e.Inner)
	if err != nil {
		return nil, err
	}
	return &ast.AliasedExpression{Alias: e.Alias, Inner: inner}, nil
}

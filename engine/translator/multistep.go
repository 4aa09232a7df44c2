package translator

import (
	"fmt"

	"github.com/chiselquery/chisel/engine/ast"
)

// MultiStepTranslator chains independent translation passes over a tree:
// pre-steps over the logical tree, one bridging step across representations,
// then post-steps over the physical tree. Multi-table storages use it to
// retarget the output of a first translation at an aggregated table schema.
type MultiStepTranslator struct {
	preSteps  []ExpressionTranslator
	bridge    ExpressionTranslator
	postSteps []ExpressionTranslator
}

func NewMultiStepTranslator(pre []ExpressionTranslator, bridge ExpressionTranslator, post []ExpressionTranslator) *MultiStepTranslator {
	return &MultiStepTranslator{preSteps: pre, bridge: bridge, postSteps: post}
}

func (m *MultiStepTranslator) TranslateExpression(e ast.Expression) (ast.Expression, error) {
	var err error
	for _, step := range m.preSteps {
		if e, err = step.TranslateExpression(e); err != nil {
			return nil, err
		}
	}
	if e, err = m.bridge.TranslateExpression(e); err != nil {
		return nil, err
	}
	for _, step := range m.postSteps {
		if e, err = step.TranslateExpression(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (m *MultiStepTranslator) TranslateFunctionCallStrict(fc *ast.FunctionCall) (*ast.FunctionCall, error) {
	out, err := m.TranslateExpression(fc)
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

// TranslateCondition applies the full step pipeline to every expression in
// the condition, preserving its AND/OR structure.
func (m *MultiStepTranslator) TranslateCondition(c ast.Condition) (ast.Condition, error) {
	if c == nil {
		return nil, nil
	}
	switch n := c.(type) {
	case *ast.BasicCondition:
		lhs, err := m.TranslateExpression(n.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := m.TranslateExpression(n.RHS)
		if err != nil {
			return nil, err
		}
		return &ast.BasicCondition{LHS: lhs, Op: n.Op, RHS: rhs}, nil
	case *ast.AndCondition:
		out := make([]ast.Condition, len(n.Conditions))
		for i, sub := range n.Conditions {
			translated, err := m.TranslateCondition(sub)
			if err != nil {
				return nil, err
			}
			out[i] = translated
		}
		return &ast.AndCondition{Conditions: out}, nil
	case *ast.OrCondition:
		out := make([]ast.Condition, len(n.Conditions))
		for i, sub := range n.Conditions {
			translated, err := m.TranslateCondition(sub)
			if err != nil {
				return nil, err
			}
			out[i] = translated
		}
		return &ast.OrCondition{Conditions: out}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %T: %w", c, ErrUnresolvedTranslation)
	}
}

// Package validator checks the structural invariants of expression and
// condition trees before they are formatted or handed to a storage: typed
// children are present, operators are known, lambda arguments are bound.
package validator

import (
	"fmt"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/mapping"
)

// ValidationError describes one violated invariant and the node carrying it.
type ValidationError struct {
	Node   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Node, e.Reason)
}

// ValidateExpression walks the tree and reports the first structural defect.
func ValidateExpression(e ast.Expression) error {
	return validateExpr(e, map[string]bool{})
}

func validateExpr(e ast.Expression, bound map[string]bool) error {
	switch n := e.(type) {
	case *ast.Column:
		if n.ColumnName == "" {
			return &ValidationError{Node: "column", Reason: "empty column name"}
		}
	case *ast.Literal:
		// Any value, including nil, is a valid literal.
	case *ast.Argument:
		if !bound[n.Name] {
			return &ValidationError{Node: "argument", Reason: fmt.Sprintf("%q not bound by an enclosing lambda", n.Name)}
		}
	case *ast.FunctionCall:
		if n.Name == "" {
			return &ValidationError{Node: "function", Reason: "empty function name"}
		}
		for _, p := range n.Parameters {
			if err := validateExpr(p, bound); err != nil {
				return err
			}
		}
	case *ast.CurriedFunctionCall:
		if n.Function == nil {
			return &ValidationError{Node: "curried function", Reason: "missing inner function"}
		}
		if err := validateExpr(n.Function, bound); err != nil {
			return err
		}
		for _, p := range n.Parameters {
			if err := validateExpr(p, bound); err != nil {
				return err
			}
		}
	case *ast.SubscriptableReference:
		if n.Column == nil || n.Key == nil {
			return &ValidationError{Node: "subscript", Reason: "missing column or key"}
		}
		if err := validateExpr(n.Column, bound); err != nil {
			return err
		}
	case *ast.Lambda:
		if n.Body == nil {
			return &ValidationError{Node: "lambda", Reason: "missing body"}
		}
		inner := make(map[string]bool, len(bound)+len(n.Parameters))
		for name := range bound {
			inner[name] = true
		}
		for _, name := range n.Parameters {
			if name == "" {
				return &ValidationError{Node: "lambda", Reason: "empty parameter name"}
			}
			inner[name] = true
		}
		return validateExpr(n.Body, inner)
	case *ast.AliasedExpression:
		if n.Alias == "" {
			return &ValidationError{Node: "aliased expression", Reason: "empty alias"}
		}
		if n.Inner == nil {
			return &ValidationError{Node: "aliased expression", Reason: "missing inner expression"}
		}
		return validateExpr(n.Inner, bound)
	default:
		return &ValidationError{Node: "expression", Reason: fmt.Sprintf("unknown node type %T", e)}
	}
	return nil
}

// ValidateCondition checks the predicate tree: known operators, present
// operands, valid expressions at the leaves.
func ValidateCondition(c ast.Condition) error {
	switch n := c.(type) {
	case *ast.BasicCondition:
		if !mapping.IsSupportedOperator(n.Op) {
			return &ValidationError{Node: "condition", Reason: fmt.Sprintf("unsupported operator %q", n.Op)}
		}
		if n.LHS == nil || n.RHS == nil {
			return &ValidationError{Node: "condition", Reason: "missing operand"}
		}
		if err := ValidateExpression(n.LHS); err != nil {
			return err
		}
		return ValidateExpression(n.RHS)
	case *ast.AndCondition:
		return validateOperands("AND", n.Conditions)
	case *ast.OrCondition:
		return validateOperands("OR", n.Conditions)
	default:
		return &ValidationError{Node: "condition", Reason: fmt.Sprintf("unknown node type %T", c)}
	}
}

func validateOperands(connective string, conds []ast.Condition) error {
	if len(conds) == 0 {
		return &ValidationError{Node: "condition", Reason: "empty " + connective}
	}
	for _, sub := range conds {
		if err := ValidateCondition(sub); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuery validates every tree the query holds.
func ValidateQuery(q *models.Query) error {
	for _, e := range q.Selected() {
		if err := ValidateExpression(e); err != nil {
			return err
		}
	}
	if cond := q.Condition(); cond != nil {
		if err := ValidateCondition(cond); err != nil {
			return err
		}
	}
	if pre := q.Prewhere(); pre != nil {
		return ValidateCondition(pre)
	}
	return nil
}

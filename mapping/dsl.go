package mapping

import "github.com/chiselquery/chisel/engine/ast"

// Shorthand constructors for expression shapes the translators and
// processors build repeatedly.

// BinaryCondition builds a single comparison condition.
func BinaryCondition(op string, lhs, rhs ast.Expression) *ast.BasicCondition {
	return &ast.BasicCondition{LHS: lhs, Op: op, RHS: rhs}
}

// InCondition builds `lhs IN tuple(values...)`.
func InCondition(lhs ast.Expression, values []ast.Expression) *ast.BasicCondition {
	return &ast.BasicCondition{LHS: lhs, Op: OpIn, RHS: Tuple(values...)}
}

// NotInCondition builds `lhs NOT IN tuple(values...)`.
func NotInCondition(lhs ast.Expression, values []ast.Expression) *ast.BasicCondition {
	return &ast.BasicCondition{LHS: lhs, Op: OpNotIn, RHS: Tuple(values...)}
}

// Tuple wraps expressions in a tuple() call, the form the right side of an
// IN condition takes.
func Tuple(items ...ast.Expression) *ast.FunctionCall {
	return &ast.FunctionCall{Name: "tuple", Parameters: items}
}

// Literals converts scalar values into literal expressions.
func Literals(values ...ast.Value) []ast.Expression {
	out := make([]ast.Expression, len(values))
	for i, v := range values {
		out[i] = &ast.Literal{Value: v}
	}
	return out
}

// Count builds count() or count(expr).
func Count(expr ast.Expression) *ast.FunctionCall {
	if expr == nil {
		return &ast.FunctionCall{Name: "count"}
	}
	return &ast.FunctionCall{Name: "count", Parameters: []ast.Expression{expr}}
}

// CountIf builds countIf(cond).
func CountIf(cond ast.Expression) *ast.FunctionCall {
	return &ast.FunctionCall{Name: "countIf", Parameters: []ast.Expression{cond}}
}

// Div builds divide(lhs, rhs).
func Div(lhs, rhs ast.Expression) *ast.FunctionCall {
	return &ast.FunctionCall{Name: "divide", Parameters: []ast.Expression{lhs, rhs}}
}

// And builds and(operands...) in function-call form.
func And(operands ...ast.Expression) *ast.FunctionCall {
	return &ast.FunctionCall{Name: BoolAnd, Parameters: operands}
}

// ArrayElement builds arrayElement(column, index) with an optional alias,
// the ClickHouse rendering of a map lookup.
func ArrayElement(alias string, column, index ast.Expression) *ast.FunctionCall {
	return &ast.FunctionCall{
		Alias:      alias,
		Name:       "arrayElement",
		Parameters: []ast.Expression{column, index},
	}
}

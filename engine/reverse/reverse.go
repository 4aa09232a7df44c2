// Package reverse imports SQL fragments into expression and condition trees.
// It exists for callers that still speak SQL — test fixtures, saved searches,
// migration tooling — and covers the predicate subset the engine models:
// comparisons, AND/OR, IN tuples, function calls, columns and literals.
package reverse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/mapping"
)

var (
	ErrNotSupported = errors.New("construct not representable in the expression model")
	ErrParseError   = errors.New("failed to parse fragment")
	ErrEmptyInput   = errors.New("empty fragment")
)

// ParseCondition converts a SQL WHERE fragment (without the WHERE keyword)
// into a condition tree.
func ParseCondition(fragment string) (ast.Condition, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, ErrEmptyInput
	}
	stmt, err := sqlparser.Parse("select 1 from t where " + fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || sel.Where == nil {
		return nil, fmt.Errorf("%w: not a predicate", ErrParseError)
	}
	return convertCondition(sel.Where.Expr)
}

// ParseExpression converts a SQL scalar expression, with an optional
// `AS alias`, into an expression tree.
func ParseExpression(fragment string) (ast.Expression, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, ErrEmptyInput
	}
	stmt, err := sqlparser.Parse("select " + fragment + " from t")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || len(sel.SelectExprs) != 1 {
		return nil, fmt.Errorf("%w: not a single expression", ErrParseError)
	}
	aliased, ok := sel.SelectExprs[0].(*sqlparser.AliasedExpr)
	if !ok {
		return nil, fmt.Errorf("%w: star projections", ErrNotSupported)
	}
	expr, err := convertExpression(aliased.Expr)
	if err != nil {
		return nil, err
	}
	if alias := aliased.As.String(); alias != "" {
		expr = withAlias(expr, alias)
	}
	return expr, nil
}

func convertCondition(node sqlparser.Expr) (ast.Condition, error) {
	switch expr := node.(type) {
	case *sqlparser.AndExpr:
		return convertBoolean(expr.Left, expr.Right, true)
	case *sqlparser.OrExpr:
		return convertBoolean(expr.Left, expr.Right, false)
	case *sqlparser.ParenExpr:
		return convertCondition(expr.Expr)
	case *sqlparser.ComparisonExpr:
		return convertComparison(expr)
	case *sqlparser.IsExpr:
		return convertIs(expr)
	default:
		return nil, fmt.Errorf("%w: condition %T", ErrNotSupported, node)
	}
}

// convertBoolean flattens a chain of the same connective into one node, so
// `a AND b AND c` comes out as a single three-operand conjunction the way
// the engine builds them.
func convertBoolean(left, right sqlparser.Expr, conjunction bool) (ast.Condition, error) {
	lhs, err := convertCondition(left)
	if err != nil {
		return nil, err
	}
	rhs, err := convertCondition(right)
	if err != nil {
		return nil, err
	}
	if conjunction {
		operands := append(flattenAnd(lhs), flattenAnd(rhs)...)
		return &ast.AndCondition{Conditions: operands}, nil
	}
	operands := append(flattenOr(lhs), flattenOr(rhs)...)
	return &ast.OrCondition{Conditions: operands}, nil
}

func flattenAnd(c ast.Condition) []ast.Condition {
	if and, ok := c.(*ast.AndCondition); ok {
		return and.Conditions
	}
	return []ast.Condition{c}
}

func flattenOr(c ast.Condition) []ast.Condition {
	if or, ok := c.(*ast.OrCondition); ok {
		return or.Conditions
	}
	return []ast.Condition{c}
}

var comparisonOperators = map[string]string{
	sqlparser.EqualStr:        mapping.OpEquals,
	sqlparser.NotEqualStr:     mapping.OpNotEquals,
	sqlparser.LessThanStr:     mapping.OpLT,
	sqlparser.GreaterThanStr:  mapping.OpGT,
	sqlparser.LessEqualStr:    mapping.OpLTE,
	sqlparser.GreaterEqualStr: mapping.OpGTE,
	sqlparser.InStr:           mapping.OpIn,
	sqlparser.NotInStr:        mapping.OpNotIn,
	sqlparser.LikeStr:         mapping.OpLike,
	sqlparser.NotLikeStr:      mapping.OpNotLike,
}

func convertComparison(expr *sqlparser.ComparisonExpr) (ast.Condition, error) {
	op, ok := comparisonOperators[expr.Operator]
	if !ok {
		return nil, fmt.Errorf("%w: operator %q", ErrNotSupported, expr.Operator)
	}
	lhs, err := convertExpression(expr.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := convertExpression(expr.Right)
	if err != nil {
		return nil, err
	}
	return &ast.BasicCondition{LHS: lhs, Op: op, RHS: rhs}, nil
}

func convertIs(expr *sqlparser.IsExpr) (ast.Condition, error) {
	inner, err := convertExpression(expr.Expr)
	if err != nil {
		return nil, err
	}
	switch expr.Operator {
	case sqlparser.IsNullStr:
		return &ast.BasicCondition{LHS: inner, Op: mapping.OpIsNull, RHS: &ast.Literal{}}, nil
	case sqlparser.IsNotNullStr:
		return &ast.BasicCondition{LHS: inner, Op: mapping.OpIsNotNull, RHS: &ast.Literal{}}, nil
	default:
		return nil, fmt.Errorf("%w: IS %s", ErrNotSupported, expr.Operator)
	}
}

func convertExpression(node sqlparser.Expr) (ast.Expression, error) {
	switch expr := node.(type) {
	case *sqlparser.ColName:
		return &ast.Column{
			TableName:  expr.Qualifier.Name.String(),
			ColumnName: expr.Name.String(),
		}, nil
	case *sqlparser.SQLVal:
		return convertLiteral(expr)
	case *sqlparser.NullVal:
		return &ast.Literal{}, nil
	case sqlparser.BoolVal:
		return &ast.Literal{Value: bool(expr)}, nil
	case sqlparser.ValTuple:
		items := make([]ast.Expression, len(expr))
		for i, item := range expr {
			converted, err := convertExpression(item)
			if err != nil {
				return nil, err
			}
			items[i] = converted
		}
		return mapping.Tuple(items...), nil
	case *sqlparser.FuncExpr:
		return convertFunction(expr)
	case *sqlparser.ParenExpr:
		return convertExpression(expr.Expr)
	default:
		return nil, fmt.Errorf("%w: expression %T", ErrNotSupported, node)
	}
}

func convertLiteral(val *sqlparser.SQLVal) (ast.Expression, error) {
	switch val.Type {
	case sqlparser.StrVal:
		return &ast.Literal{Value: string(val.Val)}, nil
	case sqlparser.IntVal:
		n, err := strconv.ParseInt(string(val.Val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: integer literal %q", ErrParseError, val.Val)
		}
		return &ast.Literal{Value: n}, nil
	case sqlparser.FloatVal:
		f, err := strconv.ParseFloat(string(val.Val), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: float literal %q", ErrParseError, val.Val)
		}
		return &ast.Literal{Value: f}, nil
	case sqlparser.HexVal:
		return &ast.Literal{Value: strings.ToLower(string(val.Val))}, nil
	default:
		return nil, fmt.Errorf("%w: literal type %v", ErrNotSupported, val.Type)
	}
}

func convertFunction(expr *sqlparser.FuncExpr) (ast.Expression, error) {
	name := expr.Name.String()
	params := make([]ast.Expression, 0, len(expr.Exprs))
	for _, se := range expr.Exprs {
		switch arg := se.(type) {
		case *sqlparser.AliasedExpr:
			converted, err := convertExpression(arg.Expr)
			if err != nil {
				return nil, err
			}
			params = append(params, converted)
		case *sqlparser.StarExpr:
			// count(*) carries no argument in the expression model.
			if strings.EqualFold(name, "count") && len(expr.Exprs) == 1 {
				return mapping.Count(nil), nil
			}
			return nil, fmt.Errorf("%w: star argument to %s", ErrNotSupported, name)
		default:
			return nil, fmt.Errorf("%w: argument %T", ErrNotSupported, se)
		}
	}
	return &ast.FunctionCall{Name: name, Parameters: params}, nil
}

func withAlias(e ast.Expression, alias string) ast.Expression {
	switch n := e.(type) {
	case *ast.Column:
		out := *n
		out.Alias = alias
		return &out
	case *ast.Literal:
		out := *n
		out.Alias = alias
		return &out
	case *ast.FunctionCall:
		out := *n
		out.Alias = alias
		return &out
	default:
		return &ast.AliasedExpression{Alias: alias, Inner: e}
	}
}

// Package format renders expression and condition trees as ClickHouse SQL.
// Conditions are emitted in function-call form (equals, in, and) so the
// output stays a plain expression grammar that round-trips through a
// ClickHouse parser.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/mapping"
)

// Expr renders one expression. An aliased node is wrapped as
// (inner AS alias) so the alias survives re-parsing in any position.
func Expr(e ast.Expression) string {
	return render(e, true)
}

func render(e ast.Expression, withAlias bool) string {
	var body, alias string
	switch n := e.(type) {
	case *ast.Column:
		alias = n.Alias
		if n.TableName != "" {
			body = n.TableName + "." + n.ColumnName
		} else {
			body = n.ColumnName
		}
	case *ast.Literal:
		alias = n.Alias
		body = literal(n.Value)
	case *ast.Argument:
		alias = n.Alias
		body = n.Name
	case *ast.FunctionCall:
		alias = n.Alias
		body = n.Name + "(" + renderList(n.Parameters) + ")"
	case *ast.CurriedFunctionCall:
		alias = n.Alias
		body = render(n.Function, false) + "(" + renderList(n.Parameters) + ")"
	case *ast.SubscriptableReference:
		alias = n.Alias
		body = render(n.Column, false) + "[" + render(n.Key, false) + "]"
	case *ast.Lambda:
		alias = n.Alias
		params := strings.Join(n.Parameters, ", ")
		if len(n.Parameters) != 1 {
			params = "(" + params + ")"
		}
		body = params + " -> " + render(n.Body, false)
	case *ast.AliasedExpression:
		alias = n.Alias
		body = render(n.Inner, false)
	default:
		body = fmt.Sprintf("<unformattable %T>", e)
	}
	if withAlias && alias != "" {
		return "(" + body + " AS " + alias + ")"
	}
	return body
}

func renderList(exprs []ast.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = render(e, true)
	}
	return strings.Join(parts, ", ")
}

func literal(v ast.Value) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(value)
	case bool:
		if value {
			return "true"
		}
		return "false"
	case int:
		return strconv.FormatInt(int64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case uint64:
		return strconv.FormatUint(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case time.Time:
		return quote(value.UTC().Format("2006-01-02 15:04:05"))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func quote(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}

// Cond renders a condition tree in function-call form.
func Cond(c ast.Condition) string {
	switch n := c.(type) {
	case *ast.BasicCondition:
		fn, ok := mapping.OperatorToFunction[n.Op]
		if !ok {
			fn = n.Op
		}
		switch n.Op {
		case mapping.OpIsNull, mapping.OpIsNotNull:
			return fn + "(" + render(n.LHS, true) + ")"
		}
		return fn + "(" + render(n.LHS, true) + ", " + render(n.RHS, true) + ")"
	case *ast.AndCondition:
		return mapping.BoolAnd + "(" + condList(n.Conditions) + ")"
	case *ast.OrCondition:
		return mapping.BoolOr + "(" + condList(n.Conditions) + ")"
	default:
		return fmt.Sprintf("<unformattable %T>", c)
	}
}

func condList(conds []ast.Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = Cond(c)
	}
	return strings.Join(parts, ", ")
}

// FormatQuery assembles the full SELECT statement for a query.
func FormatQuery(q *models.Query) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if selected := q.Selected(); len(selected) > 0 {
		sb.WriteString(renderList(selected))
	} else {
		sb.WriteString("*")
	}
	sb.WriteString(" FROM ")
	sb.WriteString(q.Table())
	if q.Final() {
		sb.WriteString(" FINAL")
	}
	if pre := q.Prewhere(); pre != nil {
		sb.WriteString(" PREWHERE ")
		sb.WriteString(Cond(pre))
	}
	if cond := q.Condition(); cond != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(Cond(cond))
	}
	return sb.String()
}

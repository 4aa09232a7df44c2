package ast

import (
	"fmt"
	"iter"
	"time"
)

// Value is a literal scalar. Allowed kinds: nil, bool, int64, float64,
// string, time.Time, and []Value (a sequence of scalars).
type Value = any

// Expression is a node in the query expression tree.
//
// Expressions are value types: a rewrite always produces a new tree, and a
// node that was not rewritten is still re-materialized as a fresh value.
// Two translations of the same source tree never share output nodes.
type Expression interface {
	// Accept dispatches to the visitor method for the concrete node kind.
	Accept(v Visitor) (Expression, error)

	// IterateExpressions yields this node and every descendant expression
	// in pre-order, left to right in field declaration order. The sequence
	// is restartable: ranging over it again starts from the beginning.
	IterateExpressions() iter.Seq[Expression]

	// Transform rewrites the tree bottom up: children are rebuilt first,
	// then f is offered the rebuilt node. The receiver is never mutated.
	Transform(f func(Expression) Expression) Expression

	isExpression()
}

// Visitor is the double-dispatch target for Expression.Accept. The translator
// is the main implementation; pure inspection visitors return nil errors.
type Visitor interface {
	VisitColumn(e *Column) (Expression, error)
	VisitLiteral(e *Literal) (Expression, error)
	VisitArgument(e *Argument) (Expression, error)
	VisitFunctionCall(e *FunctionCall) (Expression, error)
	VisitCurriedFunctionCall(e *CurriedFunctionCall) (Expression, error)
	VisitSubscriptableReference(e *SubscriptableReference) (Expression, error)
	VisitLambda(e *Lambda) (Expression, error)
	VisitAliasedExpression(e *AliasedExpression) (Expression, error)
}

// Column is a reference to a physical or logical column.
type Column struct {
	Alias      string
	TableName  string
	ColumnName string
}

// Literal is a scalar constant.
type Literal struct {
	Alias string
	Value Value
}

// Argument is a reference to a lambda-bound variable.
type Argument struct {
	Alias string
	Name  string
}

// FunctionCall applies a named function to ordered parameters.
type FunctionCall struct {
	Alias      string
	Name       string
	Parameters []Expression
}

// CurriedFunctionCall applies the result of an inner function call to a
// second parameter list, like quantile(0.9)(duration). Function is always a
// plain FunctionCall, never another curried call.
type CurriedFunctionCall struct {
	Alias      string
	Function   *FunctionCall
	Parameters []Expression
}

// SubscriptableReference is a key lookup on a map-like column, like tags[k].
type SubscriptableReference struct {
	Alias  string
	Column *Column
	Key    *Literal
}

// Lambda is an inline function with named parameters and a body expression.
type Lambda struct {
	Alias      string
	Parameters []string
	Body       Expression
}

// AliasedExpression attaches a label to an arbitrary inner expression.
type AliasedExpression struct {
	Alias string
	Inner Expression
}

func (*Column) isExpression()                 {}
func (*Literal) isExpression()                {}
func (*Argument) isExpression()               {}
func (*FunctionCall) isExpression()           {}
func (*CurriedFunctionCall) isExpression()    {}
func (*SubscriptableReference) isExpression() {}
func (*Lambda) isExpression()                 {}
func (*AliasedExpression) isExpression()      {}

func (e *Column) Accept(v Visitor) (Expression, error)       { return v.VisitColumn(e) }
func (e *Literal) Accept(v Visitor) (Expression, error)      { return v.VisitLiteral(e) }
func (e *Argument) Accept(v Visitor) (Expression, error)     { return v.VisitArgument(e) }
func (e *FunctionCall) Accept(v Visitor) (Expression, error) { return v.VisitFunctionCall(e) }
func (e *CurriedFunctionCall) Accept(v Visitor) (Expression, error) {
	return v.VisitCurriedFunctionCall(e)
}
func (e *SubscriptableReference) Accept(v Visitor) (Expression, error) {
	return v.VisitSubscriptableReference(e)
}
func (e *Lambda) Accept(v Visitor) (Expression, error) { return v.VisitLambda(e) }
func (e *AliasedExpression) Accept(v Visitor) (Expression, error) {
	return v.VisitAliasedExpression(e)
}

func (e *Column) IterateExpressions() iter.Seq[Expression]       { return iterateSeq(e) }
func (e *Literal) IterateExpressions() iter.Seq[Expression]      { return iterateSeq(e) }
func (e *Argument) IterateExpressions() iter.Seq[Expression]     { return iterateSeq(e) }
func (e *FunctionCall) IterateExpressions() iter.Seq[Expression] { return iterateSeq(e) }
func (e *CurriedFunctionCall) IterateExpressions() iter.Seq[Expression] {
	return iterateSeq(e)
}
func (e *SubscriptableReference) IterateExpressions() iter.Seq[Expression] {
	return iterateSeq(e)
}
func (e *Lambda) IterateExpressions() iter.Seq[Expression] { return iterateSeq(e) }
func (e *AliasedExpression) IterateExpressions() iter.Seq[Expression] {
	return iterateSeq(e)
}

func iterateSeq(e Expression) iter.Seq[Expression] {
	return func(yield func(Expression) bool) {
		iterate(e, yield)
	}
}

func iterate(e Expression, yield func(Expression) bool) bool {
	if !yield(e) {
		return false
	}
	switch n := e.(type) {
	case *Column, *Literal, *Argument:
	case *FunctionCall:
		for _, p := range n.Parameters {
			if !iterate(p, yield) {
				return false
			}
		}
	case *CurriedFunctionCall:
		if !iterate(n.Function, yield) {
			return false
		}
		for _, p := range n.Parameters {
			if !iterate(p, yield) {
				return false
			}
		}
	case *SubscriptableReference:
		if !iterate(n.Column, yield) {
			return false
		}
		if !iterate(n.Key, yield) {
			return false
		}
	case *Lambda:
		if !iterate(n.Body, yield) {
			return false
		}
	case *AliasedExpression:
		if !iterate(n.Inner, yield) {
			return false
		}
	}
	return true
}

func (e *Column) Transform(f func(Expression) Expression) Expression {
	return f(&Column{Alias: e.Alias, TableName: e.TableName, ColumnName: e.ColumnName})
}

func (e *Literal) Transform(f func(Expression) Expression) Expression {
	return f(&Literal{Alias: e.Alias, Value: cloneValue(e.Value)})
}

func (e *Argument) Transform(f func(Expression) Expression) Expression {
	return f(&Argument{Alias: e.Alias, Name: e.Name})
}

func (e *FunctionCall) Transform(f func(Expression) Expression) Expression {
	params := make([]Expression, len(e.Parameters))
	for i, p := range e.Parameters {
		params[i] = p.Transform(f)
	}
	return f(&FunctionCall{Alias: e.Alias, Name: e.Name, Parameters: params})
}

func (e *CurriedFunctionCall) Transform(f func(Expression) Expression) Expression {
	fn, ok := e.Function.Transform(f).(*FunctionCall)
	if !ok {
		panic(fmt.Sprintf("transform rewrote curried inner function %q to a non-function node", e.Function.Name))
	}
	params := make([]Expression, len(e.Parameters))
	for i, p := range e.Parameters {
		params[i] = p.Transform(f)
	}
	return f(&CurriedFunctionCall{Alias: e.Alias, Function: fn, Parameters: params})
}

func (e *SubscriptableReference) Transform(f func(Expression) Expression) Expression {
	col, ok := e.Column.Transform(f).(*Column)
	if !ok {
		panic(fmt.Sprintf("transform rewrote subscriptable column %q to a non-column node", e.Column.ColumnName))
	}
	key, ok := e.Key.Transform(f).(*Literal)
	if !ok {
		panic(fmt.Sprintf("transform rewrote subscriptable key of %q to a non-literal node", e.Column.ColumnName))
	}
	return f(&SubscriptableReference{Alias: e.Alias, Column: col, Key: key})
}

func (e *Lambda) Transform(f func(Expression) Expression) Expression {
	params := make([]string, len(e.Parameters))
	copy(params, e.Parameters)
	return f(&Lambda{Alias: e.Alias, Parameters: params, Body: e.Body.Transform(f)})
}

func (e *AliasedExpression) Transform(f func(Expression) Expression) Expression {
	return f(&AliasedExpression{Alias: e.Alias, Inner: e.Inner.Transform(f)})
}

// Clone returns a deep copy of e sharing no nodes with the input.
func Clone(e Expression) Expression {
	return e.Transform(func(e Expression) Expression { return e })
}

// AliasOf returns the projection label of any expression node. Empty means
// the node is unaliased.
func AliasOf(e Expression) string {
	switch n := e.(type) {
	case *Column:
		return n.Alias
	case *Literal:
		return n.Alias
	case *Argument:
		return n.Alias
	case *FunctionCall:
		return n.Alias
	case *CurriedFunctionCall:
		return n.Alias
	case *SubscriptableReference:
		return n.Alias
	case *Lambda:
		return n.Alias
	case *AliasedExpression:
		return n.Alias
	default:
		return ""
	}
}

// Equal reports structural equality of two expression trees. Literal values
// compare by value, including scalar sequences element by element.
func Equal(a, b Expression) bool {
	switch x := a.(type) {
	case *Column:
		y, ok := b.(*Column)
		return ok && *x == *y
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Alias == y.Alias && valueEqual(x.Value, y.Value)
	case *Argument:
		y, ok := b.(*Argument)
		return ok && *x == *y
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		if !ok || x.Alias != y.Alias || x.Name != y.Name {
			return false
		}
		return expressionsEqual(x.Parameters, y.Parameters)
	case *CurriedFunctionCall:
		y, ok := b.(*CurriedFunctionCall)
		if !ok || x.Alias != y.Alias || !Equal(x.Function, y.Function) {
			return false
		}
		return expressionsEqual(x.Parameters, y.Parameters)
	case *SubscriptableReference:
		y, ok := b.(*SubscriptableReference)
		return ok && x.Alias == y.Alias && Equal(x.Column, y.Column) && Equal(x.Key, y.Key)
	case *Lambda:
		y, ok := b.(*Lambda)
		if !ok || x.Alias != y.Alias || len(x.Parameters) != len(y.Parameters) {
			return false
		}
		for i := range x.Parameters {
			if x.Parameters[i] != y.Parameters[i] {
				return false
			}
		}
		return Equal(x.Body, y.Body)
	case *AliasedExpression:
		y, ok := b.(*AliasedExpression)
		return ok && x.Alias == y.Alias && Equal(x.Inner, y.Inner)
	default:
		return false
	}
}

func expressionsEqual(a, b []Expression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if as, ok := a.([]Value); ok {
		bs, ok := b.([]Value)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !valueEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

func cloneValue(v Value) Value {
	if vs, ok := v.([]Value); ok {
		out := make([]Value, len(vs))
		for i := range vs {
			out[i] = cloneValue(vs[i])
		}
		return out
	}
	return v
}

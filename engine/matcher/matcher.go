// Package matcher is a combinator language for describing the shape of an
// expression tree and extracting named captures, the way a regular
// expression describes a string and extracts groups.
//
// Matching never fails loudly: any shape mismatch, including a node of the
// wrong kind, yields a nil result. Callers branch on absence of a match as
// the normal "does not apply" signal.
package matcher

import (
	"fmt"

	"github.com/chiselquery/chisel/engine/ast"
)

// MatchResult is the capture table produced by a successful match: named
// expressions and named scalar parameters recorded by Param patterns.
type MatchResult struct {
	expressions map[string]ast.Expression
	scalars     map[string]ast.Value
}

// Contains reports whether a capture with the given name was recorded.
func (r *MatchResult) Contains(name string) bool {
	if r == nil {
		return false
	}
	_, okE := r.expressions[name]
	_, okS := r.scalars[name]
	return okE || okS
}

// Expression returns the captured expression under name. Asking for an
// absent capture is a usage error and panics; probe with Contains first.
func (r *MatchResult) Expression(name string) ast.Expression {
	e, ok := r.expressions[name]
	if !ok {
		panic(fmt.Sprintf("matcher: no expression captured under %q", name))
	}
	return e
}

// Scalar returns the captured scalar parameter under name. Asking for an
// absent capture is a usage error and panics.
func (r *MatchResult) Scalar(name string) ast.Value {
	v, ok := r.scalars[name]
	if !ok {
		panic(fmt.Sprintf("matcher: no scalar captured under %q", name))
	}
	return v
}

func emptyResult() *MatchResult {
	return &MatchResult{}
}

// merge folds other into r. Captures already present in r win, matching the
// no-backtracking rule: once a name is bound it stays bound.
func (r *MatchResult) merge(other *MatchResult) *MatchResult {
	if other == nil {
		return r
	}
	for k, v := range other.expressions {
		r.bindExpression(k, v)
	}
	for k, v := range other.scalars {
		if _, ok := r.scalars[k]; !ok {
			if r.scalars == nil {
				r.scalars = map[string]ast.Value{}
			}
			r.scalars[k] = v
		}
	}
	return r
}

func (r *MatchResult) bindExpression(name string, e ast.Expression) {
	if _, ok := r.expressions[name]; ok {
		return
	}
	if r.expressions == nil {
		r.expressions = map[string]ast.Expression{}
	}
	r.expressions[name] = e
}

// Pattern describes the shape of an expression node.
type Pattern interface {
	// Match returns the captures when e satisfies the pattern, nil
	// otherwise. It never panics on a well-formed tree.
	Match(e ast.Expression) *MatchResult
}

// StringPattern describes a string field of a node. The empty string stands
// for an absent optional field (alias, table name).
type StringPattern interface {
	MatchString(s string) *MatchResult
}

// ScalarPattern describes the value of a literal.
type ScalarPattern interface {
	MatchScalar(v ast.Value) *MatchResult
}

// Exact matches one specific non-empty string, as a field or as a literal
// string value.
type Exact struct {
	Value string
}

func (p Exact) MatchString(s string) *MatchResult {
	if s != p.Value {
		return nil
	}
	return emptyResult()
}

func (p Exact) MatchScalar(v ast.Value) *MatchResult {
	s, ok := v.(string)
	if !ok || s != p.Value {
		return nil
	}
	return emptyResult()
}

// OptionalString matches one specific string, where empty means the field
// must be absent.
type OptionalString struct {
	Value string
}

func (p OptionalString) MatchString(s string) *MatchResult {
	if s != p.Value {
		return nil
	}
	return emptyResult()
}

// AnyString matches any string field, present or absent.
type AnyString struct{}

func (AnyString) MatchString(string) *MatchResult { return emptyResult() }

// AnyOptionalString matches a literal holding any string value, or a null
// literal. It is the wildcard used where a rule cares that a side is a plain
// literal but not what it says.
type AnyOptionalString struct{}

func (AnyOptionalString) MatchScalar(v ast.Value) *MatchResult {
	if v == nil {
		return emptyResult()
	}
	if _, ok := v.(string); ok {
		return emptyResult()
	}
	return nil
}

// AnyScalar matches any literal value.
type AnyScalar struct{}

func (AnyScalar) MatchScalar(ast.Value) *MatchResult { return emptyResult() }

// AnyExpression matches every expression node.
type AnyExpression struct{}

func (AnyExpression) Match(ast.Expression) *MatchResult { return emptyResult() }

// Or matches when any alternative matches; the first structural match wins
// and there is no backtracking across already-consumed captures.
type Or struct {
	Patterns []Pattern
}

func AnyOf(patterns ...Pattern) Or { return Or{Patterns: patterns} }

func (p Or) Match(e ast.Expression) *MatchResult {
	for _, alt := range p.Patterns {
		if r := alt.Match(e); r != nil {
			return r
		}
	}
	return nil
}

// OrString is Or over string field patterns.
type OrString struct {
	Patterns []StringPattern
}

// AnyOfStrings matches a field against each exact value in order.
func AnyOfStrings(values ...string) OrString {
	out := OrString{Patterns: make([]StringPattern, len(values))}
	for i, v := range values {
		out.Patterns[i] = Exact{Value: v}
	}
	return out
}

func (p OrString) MatchString(s string) *MatchResult {
	for _, alt := range p.Patterns {
		if r := alt.MatchString(s); r != nil {
			return r
		}
	}
	return nil
}

// Param wraps any pattern and records the matched node under Name.
type Param struct {
	Name    string
	Pattern Pattern
}

func (p Param) Match(e ast.Expression) *MatchResult {
	r := p.Pattern.Match(e)
	if r == nil {
		return nil
	}
	r.bindExpression(p.Name, e)
	return r
}

// StringParam wraps a string pattern and records the matched value as a
// scalar capture under Name.
type StringParam struct {
	Name    string
	Pattern StringPattern
}

func (p StringParam) MatchString(s string) *MatchResult {
	r := p.Pattern.MatchString(s)
	if r == nil {
		return nil
	}
	if _, ok := r.scalars[p.Name]; !ok {
		if r.scalars == nil {
			r.scalars = map[string]ast.Value{}
		}
		r.scalars[p.Name] = s
	}
	return r
}

// Column matches an ast.Column. A nil field pattern ignores that field.
type Column struct {
	Alias      StringPattern
	TableName  StringPattern
	ColumnName StringPattern
}

func (p Column) Match(e ast.Expression) *MatchResult {
	col, ok := e.(*ast.Column)
	if !ok {
		return nil
	}
	result := emptyResult()
	for _, fp := range []struct {
		pattern StringPattern
		value   string
	}{
		{p.Alias, col.Alias},
		{p.TableName, col.TableName},
		{p.ColumnName, col.ColumnName},
	} {
		if fp.pattern == nil {
			continue
		}
		partial := fp.pattern.MatchString(fp.value)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	return result
}

// Literal matches an ast.Literal whose value satisfies Value. A nil Value
// pattern matches any literal.
type Literal struct {
	Alias StringPattern
	Value ScalarPattern
}

func (p Literal) Match(e ast.Expression) *MatchResult {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return nil
	}
	result := emptyResult()
	if p.Alias != nil {
		partial := p.Alias.MatchString(lit.Alias)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	if p.Value != nil {
		partial := p.Value.MatchScalar(lit.Value)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	return result
}

// FunctionCall matches an ast.FunctionCall. Nil field patterns are ignored.
// Parameter patterns are positional; when WithOptionals is set the call may
// carry extra trailing parameters beyond the ones listed, and the alias is
// not consulted at all.
type FunctionCall struct {
	Alias         StringPattern
	Name          StringPattern
	Parameters    []Pattern
	WithOptionals bool
}

func (p FunctionCall) Match(e ast.Expression) *MatchResult {
	fc, ok := e.(*ast.FunctionCall)
	if !ok {
		return nil
	}
	result := emptyResult()
	if p.Alias != nil && !p.WithOptionals {
		partial := p.Alias.MatchString(fc.Alias)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	if p.Name != nil {
		partial := p.Name.MatchString(fc.Name)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	if p.Parameters != nil {
		if p.WithOptionals {
			if len(p.Parameters) > len(fc.Parameters) {
				return nil
			}
		} else if len(p.Parameters) != len(fc.Parameters) {
			return nil
		}
		for i, pp := range p.Parameters {
			partial := pp.Match(fc.Parameters[i])
			if partial == nil {
				return nil
			}
			result = result.merge(partial)
		}
	}
	return result
}

// Subscriptable matches an ast.SubscriptableReference by its column and key.
type Subscriptable struct {
	Alias  StringPattern
	Column *Column
	Key    *Literal
}

func (p Subscriptable) Match(e ast.Expression) *MatchResult {
	ref, ok := e.(*ast.SubscriptableReference)
	if !ok {
		return nil
	}
	result := emptyResult()
	if p.Alias != nil {
		partial := p.Alias.MatchString(ref.Alias)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	if p.Column != nil {
		partial := p.Column.Match(ref.Column)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	if p.Key != nil {
		partial := p.Key.Match(ref.Key)
		if partial == nil {
			return nil
		}
		result = result.merge(partial)
	}
	return result
}

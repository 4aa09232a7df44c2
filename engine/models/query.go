// Package models holds the mutable Query container that owns an expression
// tree between processing stages, and the request settings passed explicitly
// to every processor.
package models

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/chiselquery/chisel/engine/ast"
)

// Query owns the condition tree and the projected expressions for one
// request. The trees themselves are immutable values; "mutation" of the
// query is an atomic replace of the reference it holds. A query is owned by
// a single pipeline stage at a time, so the container itself carries no
// locking.
type Query struct {
	entity    string
	table     string
	selected  []ast.Expression
	condition ast.Condition
	prewhere  ast.Condition
	final     bool
}

// NewQuery builds a query against the named entity. The physical table name
// defaults to the pluralized entity and can be overridden with SetTable.
func NewQuery(entity string) *Query {
	return &Query{entity: entity}
}

func (q *Query) Entity() string { return q.entity }

// Table returns the physical table this query reads.
func (q *Query) Table() string {
	if q.table != "" {
		return q.table
	}
	return inflection.Plural(strings.ToLower(q.entity))
}

func (q *Query) SetTable(table string) { q.table = table }

// Condition returns the current predicate tree, nil when unfiltered.
func (q *Query) Condition() ast.Condition { return q.condition }

// SetCondition atomically replaces the predicate tree. Processors compose
// their full rewritten tree first and replace in one step; partial mutation
// followed by an error is not possible through this interface.
func (q *Query) SetCondition(c ast.Condition) { q.condition = c }

// AddCondition ANDs another condition into the existing predicate.
func (q *Query) AddCondition(c ast.Condition) {
	if c == nil {
		return
	}
	if q.condition == nil {
		q.condition = c
		return
	}
	q.condition = &ast.AndCondition{Conditions: []ast.Condition{q.condition, c}}
}

// Prewhere returns the predicate hoisted into the PREWHERE clause.
func (q *Query) Prewhere() ast.Condition     { return q.prewhere }
func (q *Query) SetPrewhere(c ast.Condition) { q.prewhere = c }

// Final reports whether the query reads with the FINAL modifier, forcing
// the storage to collapse unmerged replacements.
func (q *Query) Final() bool         { return q.final }
func (q *Query) SetFinal(final bool) { q.final = final }

// Selected returns the projected expressions in order.
func (q *Query) Selected() []ast.Expression { return q.selected }

func (q *Query) AddSelected(e ast.Expression) {
	q.selected = append(q.selected, e)
}

func (q *Query) SetSelected(exprs []ast.Expression) { q.selected = exprs }

// TransformExpressions applies f bottom-up to every expression the query
// holds: projections, condition, and prewhere. Each tree is replaced
// atomically.
func (q *Query) TransformExpressions(f func(ast.Expression) ast.Expression) {
	if len(q.selected) > 0 {
		selected := make([]ast.Expression, len(q.selected))
		for i, e := range q.selected {
			selected[i] = e.Transform(f)
		}
		q.selected = selected
	}
	if q.condition != nil {
		q.condition = q.condition.Transform(f)
	}
	if q.prewhere != nil {
		q.prewhere = q.prewhere.Transform(f)
	}
}

// RequestSettings carries the per-request knobs processors consult. It is
// passed explicitly into every ProcessQuery call; processors never read
// ambient configuration.
type RequestSettings struct {
	// Turbo skips consistency machinery for latency-tolerant callers.
	Turbo bool
	// Consistent requests read-your-writes semantics.
	Consistent bool
	Debug      bool

	// MaxGroupIDsExclude caps the size of an injected group exclusion
	// list before the enforcer falls back to a FINAL read. Zero means the
	// processor default.
	MaxGroupIDsExclude int

	// ConsistencyEnforcerActive switches the replacement consistency
	// enforcer from shadow comparison to actually mutating the query.
	ConsistencyEnforcerActive bool
}

package ast

import "iter"

// Condition is the boolean predicate tree built over expressions. Like
// expressions, conditions are value types: every rewrite yields a new tree.
type Condition interface {
	// IterateExpressions flattens the condition into the expressions
	// reachable through its operands, in declaration order.
	IterateExpressions() iter.Seq[Expression]

	// Transform rewrites every expression in the condition bottom up
	// without altering the AND/OR structure.
	Transform(f func(Expression) Expression) Condition

	isCondition()
}

// BasicCondition is a single comparison between two expressions.
type BasicCondition struct {
	LHS Expression
	Op  string
	RHS Expression
}

// AndCondition is the conjunction of its operands, in order.
type AndCondition struct {
	Conditions []Condition
}

// OrCondition is the disjunction of its operands, in order.
type OrCondition struct {
	Conditions []Condition
}

func (*BasicCondition) isCondition() {}
func (*AndCondition) isCondition()   {}
func (*OrCondition) isCondition()    {}

func (c *BasicCondition) IterateExpressions() iter.Seq[Expression] {
	return func(yield func(Expression) bool) {
		if !iterate(c.LHS, yield) {
			return
		}
		iterate(c.RHS, yield)
	}
}

func (c *AndCondition) IterateExpressions() iter.Seq[Expression] {
	return iterateOperands(c.Conditions)
}

func (c *OrCondition) IterateExpressions() iter.Seq[Expression] {
	return iterateOperands(c.Conditions)
}

func iterateOperands(conds []Condition) iter.Seq[Expression] {
	return func(yield func(Expression) bool) {
		for _, c := range conds {
			for e := range c.IterateExpressions() {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func (c *BasicCondition) Transform(f func(Expression) Expression) Condition {
	return &BasicCondition{LHS: c.LHS.Transform(f), Op: c.Op, RHS: c.RHS.Transform(f)}
}

func (c *AndCondition) Transform(f func(Expression) Expression) Condition {
	return &AndCondition{Conditions: transformOperands(c.Conditions, f)}
}

func (c *OrCondition) Transform(f func(Expression) Expression) Condition {
	return &OrCondition{Conditions: transformOperands(c.Conditions, f)}
}

func transformOperands(conds []Condition, f func(Expression) Expression) []Condition {
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = c.Transform(f)
	}
	return out
}

// MapConditions rebuilds the AND/OR skeleton of c and offers every leaf
// (basic) condition to f. The callback can only replace whole leaves, so the
// logical shape of the predicate is preserved by construction.
func MapConditions(c Condition, f func(*BasicCondition) Condition) Condition {
	switch n := c.(type) {
	case *BasicCondition:
		return f(&BasicCondition{LHS: Clone(n.LHS), Op: n.Op, RHS: Clone(n.RHS)})
	case *AndCondition:
		out := make([]Condition, len(n.Conditions))
		for i, sub := range n.Conditions {
			out[i] = MapConditions(sub, f)
		}
		return &AndCondition{Conditions: out}
	case *OrCondition:
		out := make([]Condition, len(n.Conditions))
		for i, sub := range n.Conditions {
			out[i] = MapConditions(sub, f)
		}
		return &OrCondition{Conditions: out}
	default:
		return c
	}
}

// CloneCondition returns a deep copy of c sharing no nodes with the input.
func CloneCondition(c Condition) Condition {
	return c.Transform(func(e Expression) Expression { return e })
}

// FirstLevelConditions returns the top-level conjuncts of c: nested AND
// nodes are flattened, anything else (including OR) is a single conjunct.
func FirstLevelConditions(c Condition) []Condition {
	if c == nil {
		return nil
	}
	and, ok := c.(*AndCondition)
	if !ok {
		return []Condition{c}
	}
	var out []Condition
	for _, sub := range and.Conditions {
		out = append(out, FirstLevelConditions(sub)...)
	}
	return out
}

// CombineAnd joins conditions into a single conjunction. One condition is
// returned as is; an empty slice yields nil.
func CombineAnd(conds []Condition) Condition {
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return &AndCondition{Conditions: conds}
	}
}

// EqualConditions reports structural equality of two condition trees.
func EqualConditions(a, b Condition) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *BasicCondition:
		y, ok := b.(*BasicCondition)
		return ok && x.Op == y.Op && Equal(x.LHS, y.LHS) && Equal(x.RHS, y.RHS)
	case *AndCondition:
		y, ok := b.(*AndCondition)
		return ok && conditionsEqual(x.Conditions, y.Conditions)
	case *OrCondition:
		y, ok := b.(*OrCondition)
		return ok && conditionsEqual(x.Conditions, y.Conditions)
	default:
		return false
	}
}

func conditionsEqual(a, b []Condition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualConditions(a[i], b[i]) {
			return false
		}
	}
	return true
}

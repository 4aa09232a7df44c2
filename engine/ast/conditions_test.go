package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eq(column string, value Value) *BasicCondition {
	return &BasicCondition{LHS: col(column), Op: "=", RHS: &Literal{Value: value}}
}

func TestFirstLevelConditionsFlattensAnd(t *testing.T) {
	cond := &AndCondition{Conditions: []Condition{
		eq("a", int64(1)),
		&AndCondition{Conditions: []Condition{
			eq("b", int64(2)),
			eq("c", int64(3)),
		}},
		&OrCondition{Conditions: []Condition{
			eq("d", int64(4)),
			eq("e", int64(5)),
		}},
	}}

	out := FirstLevelConditions(cond)
	require.Len(t, out, 4)
	assert.IsType(t, &BasicCondition{}, out[0])
	assert.IsType(t, &BasicCondition{}, out[1])
	assert.IsType(t, &BasicCondition{}, out[2])
	// OR stays opaque: its branches are not guaranteed for every row.
	assert.IsType(t, &OrCondition{}, out[3])
}

func TestFirstLevelConditionsOfLeaf(t *testing.T) {
	leaf := eq("a", int64(1))
	out := FirstLevelConditions(leaf)
	require.Len(t, out, 1)
	assert.Same(t, Condition(leaf), out[0])
}

func TestMapConditionsPreservesSkeleton(t *testing.T) {
	cond := &OrCondition{Conditions: []Condition{
		eq("a", int64(1)),
		&AndCondition{Conditions: []Condition{
			eq("b", int64(2)),
			eq("c", int64(3)),
		}},
	}}

	out := MapConditions(cond, func(c *BasicCondition) Condition {
		if c.LHS.(*Column).ColumnName == "b" {
			return eq("b2", int64(2))
		}
		return c
	})

	or, ok := out.(*OrCondition)
	require.True(t, ok)
	require.Len(t, or.Conditions, 2)
	and, ok := or.Conditions[1].(*AndCondition)
	require.True(t, ok)
	assert.Equal(t, "b2", and.Conditions[0].(*BasicCondition).LHS.(*Column).ColumnName)
	assert.Equal(t, "c", and.Conditions[1].(*BasicCondition).LHS.(*Column).ColumnName)

	// Input left alone.
	orig := cond.Conditions[1].(*AndCondition).Conditions[0].(*BasicCondition)
	assert.Equal(t, "b", orig.LHS.(*Column).ColumnName)
}

func TestMapConditionsOffersFreshLeaves(t *testing.T) {
	leaf := eq("a", int64(1))
	var seen *BasicCondition
	MapConditions(leaf, func(c *BasicCondition) Condition {
		seen = c
		return c
	})
	require.NotNil(t, seen)
	assert.NotSame(t, leaf, seen)
	assert.NotSame(t, leaf.LHS, seen.LHS)
}

func TestCombineAnd(t *testing.T) {
	a, b := eq("a", int64(1)), eq("b", int64(2))

	assert.Nil(t, CombineAnd(nil))
	assert.Same(t, Condition(a), CombineAnd([]Condition{a}))

	combined, ok := CombineAnd([]Condition{a, b}).(*AndCondition)
	require.True(t, ok)
	assert.Len(t, combined.Conditions, 2)
}

func TestEqualConditions(t *testing.T) {
	a := &AndCondition{Conditions: []Condition{eq("a", int64(1)), eq("b", "x")}}
	b := &AndCondition{Conditions: []Condition{eq("a", int64(1)), eq("b", "x")}}
	c := &AndCondition{Conditions: []Condition{eq("a", int64(1)), eq("b", "y")}}

	assert.True(t, EqualConditions(a, b))
	assert.False(t, EqualConditions(a, c))
	assert.False(t, EqualConditions(a, nil))
	assert.True(t, EqualConditions(nil, nil))
}

package chisel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/engine/replacer"
	"github.com/chiselquery/chisel/engine/storage"
	"github.com/chiselquery/chisel/mapping"
)

func logicalQuery() *models.Query {
	q := models.NewQuery("events")
	q.AddSelected(&ast.FunctionCall{Alias: "total", Name: "count"})
	q.AddSelected(&ast.SubscriptableReference{
		Alias:  "env",
		Column: &ast.Column{ColumnName: "tags"},
		Key:    &ast.Literal{Value: "environment"},
	})
	q.SetCondition(&ast.AndCondition{Conditions: []ast.Condition{
		mapping.BinaryCondition(mapping.OpEquals,
			&ast.Column{ColumnName: "project_id"}, &ast.Literal{Value: int64(1)}),
		mapping.BinaryCondition(mapping.OpLike,
			&ast.Column{ColumnName: "message"}, &ast.Literal{Value: "%panic%"}),
	}})
	return q
}

func TestTranslateForStorage(t *testing.T) {
	events := storage.Events(replacer.StaticOracle{})
	out, err := TranslateForStorage(logicalQuery(), events)
	require.NoError(t, err)

	assert.Equal(t, "errors_local", out.Table())

	// tags[environment] became the nested-array lookup.
	lookup, ok := out.Selected()[1].(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "arrayElement", lookup.Name)
	assert.Equal(t, "env", lookup.Alias)

	// message reads through the search copy.
	and := out.Condition().(*ast.AndCondition)
	msg := and.Conditions[1].(*ast.BasicCondition)
	assert.Equal(t, "search_message", msg.LHS.(*ast.Column).ColumnName)
}

func TestTranslateDoesNotMutateInput(t *testing.T) {
	q := logicalQuery()
	before := ast.CloneCondition(q.Condition())

	_, err := TranslateForStorage(q, storage.Events(replacer.StaticOracle{}))
	require.NoError(t, err)

	assert.True(t, ast.EqualConditions(before, q.Condition()))
	assert.Equal(t, "events", q.Table())
}

func TestTranslateJoinRequiresSharedStorageSet(t *testing.T) {
	_, err := TranslateJoin(logicalQuery(),
		storage.Events(replacer.StaticOracle{}), storage.Transactions())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStorageSetMismatch)
}

func TestRunProcessorsStopsAtFirstFailure(t *testing.T) {
	q := logicalQuery()
	oracle := replacer.StaticOracle{Err: assert.AnError}
	failing := storage.Events(oracle).Processors

	settings := &models.RequestSettings{ConsistencyEnforcerActive: true}
	err := RunProcessors(context.Background(), q, settings, failing...)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSQLForStorageEndToEnd(t *testing.T) {
	events := storage.Events(replacer.StaticOracle{ExcludedGroups: []int64{42}})
	settings := &models.RequestSettings{
		ConsistencyEnforcerActive: true,
		MaxGroupIDsExclude:        10,
	}

	sql, err := SQLForStorage(context.Background(), logicalQuery(), events, settings)
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM errors_local")
	assert.Contains(t, sql, "PREWHERE")
	assert.Contains(t, sql, "search_message")
	assert.Contains(t, sql, "notIn(assumeNotNull(group_id), tuple(42))")
	assert.NotContains(t, sql, " FINAL ")
}

func TestSQLForStorageFinalFallback(t *testing.T) {
	events := storage.Events(replacer.StaticOracle{ExcludedGroups: []int64{1, 2, 3}})
	settings := &models.RequestSettings{
		ConsistencyEnforcerActive: true,
		MaxGroupIDsExclude:        2,
	}

	sql, err := SQLForStorage(context.Background(), logicalQuery(), events, settings)
	require.NoError(t, err)

	assert.Contains(t, sql, "errors_local FINAL")
	assert.NotContains(t, sql, "notIn(assumeNotNull(group_id)")
}

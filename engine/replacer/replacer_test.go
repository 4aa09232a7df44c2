package replacer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticOracleReturnsCopies(t *testing.T) {
	oracle := StaticOracle{Final: true, ExcludedGroups: []int64{1, 2}}

	final, groups, err := oracle.QueryFlags(context.Background(), []int64{10})
	require.NoError(t, err)
	assert.True(t, final)
	require.Equal(t, []int64{1, 2}, groups)

	groups[0] = 99
	_, again, err := oracle.QueryFlags(context.Background(), []int64{10})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, again)
}

func TestStaticOracleError(t *testing.T) {
	wantErr := errors.New("boom")
	oracle := StaticOracle{Final: true, Err: wantErr}

	final, groups, err := oracle.QueryFlags(context.Background(), []int64{10})
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, final)
	assert.Nil(t, groups)
}

func TestRedisOracleKeyLayout(t *testing.T) {
	oracle := NewRedisOracle(nil, "errors", nil)
	assert.Equal(t, "replacements:errors:project_needs_final:42", oracle.needsFinalKey(42))
	assert.Equal(t, "replacements:errors:project_exclude_groups:42", oracle.excludeGroupsKey(42))
}

func TestRedisOracleEmptyProjectList(t *testing.T) {
	oracle := NewRedisOracle(nil, "errors", nil)
	final, groups, err := oracle.QueryFlags(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, final)
	assert.Nil(t, groups)
}

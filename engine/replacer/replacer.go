// Package replacer exposes the replacement-state oracle: which projects have
// pending replacements that have not merged yet, and which groups must be
// excluded from reads until they do.
package replacer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Oracle answers, for a set of projects, whether reads should run in FINAL
// mode and which group ids are excluded while replacements settle.
type Oracle interface {
	QueryFlags(ctx context.Context, projectIDs []int64) (final bool, excludedGroups []int64, err error)
}

// RedisOracle reads replacement state written by the replacer workers. Each
// project has a needs-final marker key and a set of excluded group ids; the
// flags for a query are the union across its projects.
type RedisOracle struct {
	client *redis.Client
	// stateName separates replacement state for replacers running against
	// multiple tables; it is part of every key.
	stateName string
	logger    *zap.Logger
}

func NewRedisOracle(client *redis.Client, stateName string, logger *zap.Logger) *RedisOracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisOracle{client: client, stateName: stateName, logger: logger}
}

func (o *RedisOracle) needsFinalKey(projectID int64) string {
	return fmt.Sprintf("replacements:%s:project_needs_final:%d", o.stateName, projectID)
}

func (o *RedisOracle) excludeGroupsKey(projectID int64) string {
	return fmt.Sprintf("replacements:%s:project_exclude_groups:%d", o.stateName, projectID)
}

func (o *RedisOracle) QueryFlags(ctx context.Context, projectIDs []int64) (bool, []int64, error) {
	if len(projectIDs) == 0 {
		return false, nil, nil
	}

	pipe := o.client.Pipeline()
	finalCmds := make([]*redis.StringCmd, len(projectIDs))
	groupCmds := make([]*redis.StringSliceCmd, len(projectIDs))
	for i, id := range projectIDs {
		finalCmds[i] = pipe.Get(ctx, o.needsFinalKey(id))
		groupCmds[i] = pipe.SMembers(ctx, o.excludeGroupsKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, nil, fmt.Errorf("replacer: reading query flags: %w", err)
	}

	final := false
	groups := map[int64]struct{}{}
	for i := range projectIDs {
		if _, err := finalCmds[i].Result(); err == nil {
			final = true
		} else if !errors.Is(err, redis.Nil) {
			return false, nil, fmt.Errorf("replacer: reading needs-final marker: %w", err)
		}
		members, err := groupCmds[i].Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, nil, fmt.Errorf("replacer: reading excluded groups: %w", err)
		}
		for _, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				o.logger.Warn("skipping malformed excluded group id",
					zap.String("member", m), zap.Int64("project_id", projectIDs[i]))
				continue
			}
			groups[id] = struct{}{}
		}
	}

	return final, sortedIDs(groups), nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	if len(set) == 0 {
		return nil
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StaticOracle serves fixed flags; used in tests and for shadow rollouts
// where the state is precomputed.
type StaticOracle struct {
	Final          bool
	ExcludedGroups []int64
	Err            error
}

func (o StaticOracle) QueryFlags(context.Context, []int64) (bool, []int64, error) {
	if o.Err != nil {
		return false, nil, o.Err
	}
	return o.Final, append([]int64(nil), o.ExcludedGroups...), nil
}

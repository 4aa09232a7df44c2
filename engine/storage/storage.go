// Package storage describes the physical tables queries translate onto: the
// table, its storage set (tables colocated on one cluster), the translation
// rules mapping the logical schema to it, and the processors it requires.
package storage

import (
	"errors"
	"fmt"

	"github.com/chiselquery/chisel/engine/processors"
	"github.com/chiselquery/chisel/engine/translator"
)

// StorageSetKey identifies a group of tables guaranteed to live on the same
// cluster. Queries can only join storages within one set.
type StorageSetKey string

const (
	StorageSetEvents       StorageSetKey = "events"
	StorageSetTransactions StorageSetKey = "transactions"
	StorageSetOutcomes     StorageSetKey = "outcomes"
)

// ErrStorageSetMismatch is returned when a join spans storage sets.
var ErrStorageSetMismatch = errors.New("storages belong to different storage sets")

// Storage is the descriptor a query pipeline needs to target one table.
type Storage struct {
	Name  string
	Set   StorageSetKey
	Table string

	// PrewhereKeys lists hoistable columns in priority order.
	PrewhereKeys []string

	Rules      translator.TranslationRules
	Processors []processors.QueryProcessor
}

// JoinRules merges the rule sets of two joinable storages, left first so its
// rules take precedence. Storages in different sets cannot be colocated and
// the join is rejected.
func JoinRules(left, right *Storage) (translator.TranslationRules, error) {
	if left.Set != right.Set {
		return translator.TranslationRules{}, fmt.Errorf(
			"cannot join %s (%s) with %s (%s): %w",
			left.Name, left.Set, right.Name, right.Set, ErrStorageSetMismatch)
	}
	return left.Rules.Concat(right.Rules), nil
}

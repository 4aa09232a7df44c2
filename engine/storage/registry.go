package storage

import (
	"fmt"

	"github.com/chiselquery/chisel/engine/processors"
	"github.com/chiselquery/chisel/engine/replacer"
	"github.com/chiselquery/chisel/engine/translator"
)

// Events maps the logical error-event schema onto the errors table. Tags are
// promoted where dedicated columns exist, message reads through the search
// copy, and reads stay consistent with in-flight group replacements.
func Events(oracle replacer.Oracle) *Storage {
	return &Storage{
		Name:         "events",
		Set:          StorageSetEvents,
		Table:        "errors_local",
		PrewhereKeys: []string{"event_id", "group_id", "project_id", "timestamp"},
		Rules: translator.TranslationRules{
			Columns: []translator.ColumnMapper{
				translator.ColumnToColumn{FromCol: "message", ToCol: "search_message"},
				translator.ColumnToFunction{FromCol: "group_id", Wrapper: "assumeNotNull", ToCol: "group_id"},
				translator.ColumnToLiteral{FromCol: "type", Value: "error"},
			},
			Subscriptables: []translator.SubscriptableMapper{
				translator.TagMapper{FromColumn: "tags", ToColumn: "tags"},
				translator.TagMapper{FromColumn: "contexts", ToColumn: "contexts"},
			},
		},
		Processors: []processors.QueryProcessor{
			processors.NewUUIDColumnProcessor("event_id", "primary_hash", "trace_id"),
			processors.NewTagsPromoter("tags", map[string]processors.PromotedColumn{
				"environment": {Name: "environment"},
				"release":     {Name: "release"},
				"dist":        {Name: "dist"},
				"level":       {Name: "level"},
			}),
			processors.NewPostReplacementConsistencyEnforcer("project_id", "group_id", oracle, nil),
			processors.NewPrewhereProcessor([]string{"event_id", "group_id", "project_id", "timestamp"}, 1),
		},
	}
}

// Transactions maps the logical transaction schema onto the transactions
// table: span and trace ids arrive hex-encoded, durations and the error rate
// aggregate are computed from the status column.
func Transactions() *Storage {
	return &Storage{
		Name:         "transactions",
		Set:          StorageSetTransactions,
		Table:        "transactions_local",
		PrewhereKeys: []string{"event_id", "project_id", "finish_ts"},
		Rules: translator.TranslationRules{
			Columns: []translator.ColumnMapper{
				translator.ColumnToColumn{FromCol: "timestamp", ToCol: "finish_ts"},
				translator.ColumnToColumn{FromCol: "transaction", ToCol: "transaction_name"},
				translator.ColumnToLiteral{FromCol: "type", Value: "transaction"},
			},
			Functions: []translator.FunctionCallMapper{
				translator.FunctionNameMapper{From: "uniq", To: "uniqCombined"},
			},
			Subscriptables: []translator.SubscriptableMapper{
				translator.TagMapper{FromColumn: "tags", ToColumn: "tags"},
			},
		},
		Processors: []processors.QueryProcessor{
			processors.NewUUIDColumnProcessor("event_id", "trace_id"),
			processors.NewHexIntColumnProcessor("span_id", "parent_span_id"),
			processors.NewErrorRateProcessor("transaction_status"),
			processors.NewPrewhereProcessor([]string{"event_id", "project_id", "finish_ts"}, 1),
		},
	}
}

// Lookup resolves a storage by name.
func Lookup(name string, oracle replacer.Oracle) (*Storage, error) {
	switch name {
	case "events":
		return Events(oracle), nil
	case "transactions":
		return Transactions(), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", name)
	}
}

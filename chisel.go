// Package chisel translates logical query trees onto physical ClickHouse
// storages: rule-based expression translation, post-translation processors,
// and SQL formatting, behind one facade.
package chisel

import (
	"context"
	"fmt"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/format"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/engine/processors"
	"github.com/chiselquery/chisel/engine/storage"
	"github.com/chiselquery/chisel/engine/translator"
	"github.com/chiselquery/chisel/engine/validator"
)

// TranslateForStorage rewrites every tree the query holds through the
// storage's rules and retargets the query at the storage's table. The input
// query is not modified.
func TranslateForStorage(q *models.Query, st *storage.Storage) (*models.Query, error) {
	return translate(q, st.Rules, st.Table)
}

// TranslateJoin translates a query spanning two storages with their merged
// rule sets, left rules first. The storages must share a storage set.
func TranslateJoin(q *models.Query, left, right *storage.Storage) (*models.Query, error) {
	rules, err := storage.JoinRules(left, right)
	if err != nil {
		return nil, err
	}
	return translate(q, rules, left.Table)
}

func translate(q *models.Query, rules translator.TranslationRules, table string) (*models.Query, error) {
	t := translator.NewRuleBasedTranslator(rules)

	out := models.NewQuery(q.Entity())
	out.SetTable(table)
	out.SetFinal(q.Final())

	for _, e := range q.Selected() {
		translated, err := t.TranslateExpression(e)
		if err != nil {
			return nil, fmt.Errorf("translating projection %s: %w", ast.AliasOf(e), err)
		}
		out.AddSelected(translated)
	}
	cond, err := t.TranslateCondition(q.Condition())
	if err != nil {
		return nil, fmt.Errorf("translating condition: %w", err)
	}
	out.SetCondition(cond)
	pre, err := t.TranslateCondition(q.Prewhere())
	if err != nil {
		return nil, fmt.Errorf("translating prewhere: %w", err)
	}
	out.SetPrewhere(pre)
	return out, nil
}

// RunProcessors applies each processor in order, stopping at the first
// failure. Processors mutate q in place; a failed processor leaves it in the
// state the previous one produced, which is always valid.
func RunProcessors(ctx context.Context, q *models.Query, settings *models.RequestSettings, procs ...processors.QueryProcessor) error {
	if settings == nil {
		settings = &models.RequestSettings{}
	}
	for _, p := range procs {
		if err := p.ProcessQuery(ctx, q, settings); err != nil {
			return err
		}
	}
	return nil
}

// SQLForStorage runs the full pipeline for one storage: translate, process
// with the storage's processors, validate, format.
func SQLForStorage(ctx context.Context, q *models.Query, st *storage.Storage, settings *models.RequestSettings) (string, error) {
	translated, err := TranslateForStorage(q, st)
	if err != nil {
		return "", err
	}
	if err := RunProcessors(ctx, translated, settings, st.Processors...); err != nil {
		return "", err
	}
	if err := validator.ValidateQuery(translated); err != nil {
		return "", fmt.Errorf("translated query failed validation: %w", err)
	}
	return format.FormatQuery(translated), nil
}

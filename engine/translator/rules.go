package translator

import (
	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/mapping"
)

// Concrete mapping rules shared by the storage rule sets. Each one declines
// (nil, nil) unless the node names the column or function it was built for,
// so finer rules can be layered ahead of coarser ones.

// ColumnToColumn maps a column with a given name and table into a column
// with a different name and table. The alias is carried over untouched.
type ColumnToColumn struct {
	FromTable string
	FromCol   string
	ToTable   string
	ToCol     string
}

func (r ColumnToColumn) AttemptMap(e *ast.Column, _ ExpressionTranslator) (ast.Expression, error) {
	if e.ColumnName != r.FromCol || e.TableName != r.FromTable {
		return nil, nil
	}
	return &ast.Column{Alias: e.Alias, TableName: r.ToTable, ColumnName: r.ToCol}, nil
}

// ColumnToLiteral maps a column into a hardcoded literal, for storages where
// a logical column has one fixed value (like the event type on a
// single-type table).
type ColumnToLiteral struct {
	FromTable string
	FromCol   string
	Value     ast.Value
}

func (r ColumnToLiteral) AttemptMap(e *ast.Column, _ ExpressionTranslator) (ast.Expression, error) {
	if e.ColumnName != r.FromCol || e.TableName != r.FromTable {
		return nil, nil
	}
	return &ast.Literal{Alias: e.Alias, Value: r.Value}, nil
}

// ColumnToFunction wraps a column in a single-argument function call, the
// common case being assumeNotNull around a nullable physical column.
type ColumnToFunction struct {
	FromTable string
	FromCol   string
	Wrapper   string
	ToTable   string
	ToCol     string
}

func (r ColumnToFunction) AttemptMap(e *ast.Column, _ ExpressionTranslator) (ast.Expression, error) {
	if e.ColumnName != r.FromCol || e.TableName != r.FromTable {
		return nil, nil
	}
	return &ast.FunctionCall{
		Alias: e.Alias,
		Name:  r.Wrapper,
		Parameters: []ast.Expression{
			&ast.Column{TableName: r.ToTable, ColumnName: r.ToCol},
		},
	}, nil
}

// FunctionNameMapper renames a function call, translating its parameters
// through the registry.
type FunctionNameMapper struct {
	From string
	To   string
}

func (r FunctionNameMapper) AttemptMap(e *ast.FunctionCall, children ExpressionTranslator) (ast.Expression, error) {
	if e.Name != r.From {
		return nil, nil
	}
	params, err := translateAll(e.Parameters, children)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Alias: e.Alias, Name: r.To, Parameters: params}, nil
}

// TagMapper translates a subscriptable tag lookup into the ClickHouse
// nested-array access arrayElement(col.value, indexOf(col.key, k)).
type TagMapper struct {
	FromColumn string
	FromTable  string
	ToColumn   string
	ToTable    string
}

func (r TagMapper) AttemptMap(e *ast.SubscriptableReference, children ExpressionTranslator) (ast.Expression, error) {
	if e.Column.ColumnName != r.FromColumn || e.Column.TableName != r.FromTable {
		return nil, nil
	}
	key, err := children.TranslateExpression(e.Key)
	if err != nil {
		return nil, err
	}
	return mapping.ArrayElement(
		e.Alias,
		&ast.Column{TableName: r.ToTable, ColumnName: r.ToColumn + ".value"},
		&ast.FunctionCall{
			Name: "indexOf",
			Parameters: []ast.Expression{
				&ast.Column{TableName: r.ToTable, ColumnName: r.ToColumn + ".key"},
				key,
			},
		},
	), nil
}

package processors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/models"
)

func TestErrorRateExpansion(t *testing.T) {
	q := models.NewQuery("transactions")
	q.AddSelected(&ast.FunctionCall{Alias: "error_rate", Name: "error_rate"})

	proc := NewErrorRateProcessor("transaction_status")
	require.NoError(t, proc.ProcessQuery(context.Background(), q, &models.RequestSettings{}))

	expected := &ast.FunctionCall{
		Alias: "error_rate",
		Name:  "divide",
		Parameters: []ast.Expression{
			&ast.FunctionCall{Name: "countIf", Parameters: []ast.Expression{
				&ast.FunctionCall{Name: "and", Parameters: []ast.Expression{
					&ast.FunctionCall{Name: "notEquals", Parameters: []ast.Expression{
						&ast.Column{ColumnName: "transaction_status"},
						&ast.Literal{Value: int64(0)},
					}},
					&ast.FunctionCall{Name: "notEquals", Parameters: []ast.Expression{
						&ast.Column{ColumnName: "transaction_status"},
						&ast.Literal{Value: int64(2)},
					}},
				}},
			}},
			&ast.FunctionCall{Name: "count"},
		},
	}
	assert.True(t, ast.Equal(expected, q.Selected()[0]), "got %#v", q.Selected()[0])
}

func TestErrorRateIgnoresCallsWithArguments(t *testing.T) {
	input := &ast.FunctionCall{
		Name:       "error_rate",
		Parameters: []ast.Expression{&ast.Column{ColumnName: "x"}},
	}
	q := models.NewQuery("transactions")
	q.AddSelected(input)

	proc := NewErrorRateProcessor("transaction_status")
	require.NoError(t, proc.ProcessQuery(context.Background(), q, &models.RequestSettings{}))

	assert.True(t, ast.Equal(input, q.Selected()[0]))
}

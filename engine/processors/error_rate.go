package processors

import (
	"context"

	"github.com/chiselquery/chisel/engine/ast"
	"github.com/chiselquery/chisel/engine/models"
	"github.com/chiselquery/chisel/mapping"
)

// Transaction status codes with a successful meaning; everything else counts
// as an error.
const (
	statusOK      = int64(0)
	statusUnknown = int64(2)
)

// ErrorRateProcessor expands the zero-argument error_rate() aggregate into
// the ratio of failed rows over all rows:
//
//	divide(countIf(and(notEquals(status, 0), notEquals(status, 2))), count())
type ErrorRateProcessor struct {
	statusColumn string
}

func NewErrorRateProcessor(statusColumn string) *ErrorRateProcessor {
	return &ErrorRateProcessor{statusColumn: statusColumn}
}

func (p *ErrorRateProcessor) ProcessQuery(_ context.Context, q *models.Query, _ *models.RequestSettings) error {
	q.TransformExpressions(p.expand)
	return nil
}

func (p *ErrorRateProcessor) expand(e ast.Expression) ast.Expression {
	fc, ok := e.(*ast.FunctionCall)
	if !ok || fc.Name != "error_rate" || len(fc.Parameters) != 0 {
		return e
	}
	notStatus := func(code int64) ast.Expression {
		return &ast.FunctionCall{
			Name: mapping.OperatorToFunction[mapping.OpNotEquals],
			Parameters: []ast.Expression{
				&ast.Column{ColumnName: p.statusColumn},
				&ast.Literal{Value: code},
			},
		}
	}
	failed := mapping.CountIf(mapping.And(notStatus(statusOK), notStatus(statusUnknown)))
	expanded := mapping.Div(failed, mapping.Count(nil))
	expanded.Alias = fc.Alias
	return expanded
}

// Package processors holds the query rewrite passes that run against a
// logical or physical tree after translation. Each processor inspects the
// query through the matcher, composes a full replacement tree, and swaps it
// in atomically; a processor that declines to act leaves the query exactly
// as it found it.
package processors

import (
	"context"

	"github.com/chiselquery/chisel/engine/models"
)

// QueryProcessor is one rewrite pass. Implementations must leave the query
// valid whether they act or decline, and must not depend on other processors
// having run.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, q *models.Query, settings *models.RequestSettings) error
}

// Package repositories defines the boundary to the graph database driver.
// The driver itself is an external collaborator; the gateway depends only on
// these interfaces.
package repositories

import (
	"context"

	"github.com/cyphergate/cyphergate/pkg/models"
)

// GraphRepository executes queries against the engine.
type GraphRepository interface {
	// Run submits a query with its parameters and returns a result handle.
	// Parameters must be forwarded to the engine unchanged.
	Run(ctx context.Context, query string, params map[string]interface{}) (ResultHandle, error)
}

// ResultHandle is the engine's cursor over a submitted query.
type ResultHandle interface {
	// Consume discards all unfetched rows and returns the plan and runtime
	// statistics. Analysis paths call only Consume, keeping their cost
	// independent of the query's result size.
	Consume(ctx context.Context) (*models.PlanSummary, error)

	// Materialize fetches the full row set. Only the main execution path may
	// call it, and only after the full security gate has passed.
	Materialize(ctx context.Context) ([]map[string]interface{}, error)
}

// QueryTranslator is the opaque natural-language-to-query collaborator. Its
// output is never trusted: it re-enters the pipeline exactly as raw client
// input would.
type QueryTranslator interface {
	Translate(ctx context.Context, prompt string) (string, error)
}

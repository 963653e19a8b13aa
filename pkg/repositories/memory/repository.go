// Package memory provides an in-memory GraphRepository used for local
// development and tests. It does not evaluate queries; callers register
// canned rows and plans per query string, and unregistered queries return an
// empty result with a trivial plan.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cyphergate/cyphergate/pkg/models"
	"github.com/cyphergate/cyphergate/pkg/repositories"
)

// Result is a canned response for a query.
type Result struct {
	Rows []map[string]interface{}
	Plan *models.PlanSummary
	Err  error
}

// Repository is a canned-response GraphRepository. Safe for concurrent use.
type Repository struct {
	mu      sync.Mutex
	results map[string]Result
	queries []string
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{results: make(map[string]Result)}
}

// Register installs a canned result for the exact query text.
func (r *Repository) Register(query string, result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[query] = result
}

// Queries returns the queries submitted so far, in order.
func (r *Repository) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.queries))
	copy(out, r.queries)
	return out
}

// Run records the query and returns a handle over its canned result.
func (r *Repository) Run(ctx context.Context, query string, params map[string]interface{}) (repositories.ResultHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.queries = append(r.queries, query)
	result, ok := r.results[query]
	r.mu.Unlock()

	if !ok {
		result = Result{}
	}
	if result.Err != nil {
		return nil, result.Err
	}
	return &handle{result: result}, nil
}

type handle struct {
	result Result
}

func (h *handle) Consume(ctx context.Context) (*models.PlanSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.result.Plan != nil {
		return h.result.Plan, nil
	}
	return &models.PlanSummary{
		Root: &models.PlanOperator{
			Name:          "ProduceResults",
			EstimatedRows: int64(len(h.result.Rows)),
		},
		ResultRows:    int64(len(h.result.Rows)),
		ExecutionTime: time.Duration(0),
	}, nil
}

func (h *handle) Materialize(ctx context.Context) ([]map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, len(h.result.Rows))
	copy(rows, h.result.Rows)
	return rows, nil
}

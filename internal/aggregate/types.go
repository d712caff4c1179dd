package aggregate

import (
	"context"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

// Source is a single live origin of opportunity records. Each source gets
// exactly one fetch attempt per pipeline run.
type Source interface {
	// Name is the provenance label attached to the records (e.g. "Codeforces (Live)").
	Name() string
	// Fetch maps the upstream payload onto the common Opportunity shape.
	// Implementations skip malformed records instead of failing the batch.
	Fetch(ctx context.Context) ([]models.Opportunity, error)
}

// DatabaseReader supplies the admin-curated subset of the feed.
type DatabaseReader interface {
	ListActive(ctx context.Context) ([]models.Opportunity, error)
}

// Result is the outcome of one aggregation run.
//
// Err is set only when the database read fails; per-source and per-record
// failures are swallowed and simply shrink the list. Callers retry by
// running the pipeline again.
type Result struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	FetchedAt     time.Time            `json:"fetched_at"`
	Err           string               `json:"error,omitempty"`
}

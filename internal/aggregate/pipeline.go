package aggregate

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
	"golang.org/x/sync/errgroup"
)

const defaultSourceTimeout = 8 * time.Second

// Pipeline runs one aggregation pass: database subset, live sources in
// parallel, static fallback, then merge, dedup, filter and sort.
//
// Merge order is the dedup policy. The database is pinned first, the live
// sources follow in their registry order, the fallback table is pinned last,
// and the first record seen under a normalized title wins.
type Pipeline struct {
	DB       DatabaseReader
	Sources  []Source
	Fallback *Fallback
	Timeout  time.Duration

	now func() time.Time
}

// NewPipeline wires a pipeline. db and fallback may be nil; timeout <= 0
// falls back to the default per-source budget.
func NewPipeline(db DatabaseReader, sources []Source, fallback *Fallback, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Pipeline{
		DB:       db,
		Sources:  sources,
		Fallback: fallback,
		Timeout:  timeout,
		now:      time.Now,
	}
}

// Run executes one full aggregation pass. A database failure is the only
// error surfaced in the result, and even then the live and fallback batches
// still go through; per-source failures just contribute zero records.
func (p *Pipeline) Run(ctx context.Context) Result {
	now := p.now().UTC()

	var dbRecs []models.Opportunity
	var dbErrMsg string
	if p.DB != nil {
		dbCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		recs, err := p.DB.ListActive(dbCtx)
		cancel()
		if err != nil {
			log.Printf("[pipeline] database read failed: %v", err)
			dbErrMsg = "failed to load curated opportunities: " + err.Error()
		} else {
			dbRecs = recs
		}
	}

	// Each source writes only its own slot, so the merge below is
	// deterministic no matter which fetch finishes first.
	batches := make([][]models.Opportunity, len(p.Sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range p.Sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, p.Timeout)
			defer cancel()
			recs, err := src.Fetch(sctx)
			if err != nil {
				log.Printf("[pipeline] source %s failed: %v", src.Name(), err)
				return nil
			}
			log.Printf("[pipeline] source %s returned %d records", src.Name(), len(recs))
			batches[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]models.Opportunity, 0, len(dbRecs)+32)
	merged = append(merged, dbRecs...)
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	if p.Fallback != nil {
		merged = append(merged, p.Fallback.Resolve(now)...)
	}

	return Result{
		Opportunities: finalize(merged, now),
		FetchedAt:     now,
		Err:           dbErrMsg,
	}.withTotal()
}

// RunDatabaseOnly serves the fast path: just the curated subset, already
// filtered and ordered by the store query, passed through the same finalize
// step for uniformity.
func (p *Pipeline) RunDatabaseOnly(ctx context.Context) Result {
	now := p.now().UTC()
	res := Result{FetchedAt: now}
	if p.DB == nil {
		return res
	}
	dbCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	recs, err := p.DB.ListActive(dbCtx)
	if err != nil {
		log.Printf("[pipeline] database read failed: %v", err)
		res.Err = "failed to load curated opportunities: " + err.Error()
		return res
	}
	res.Opportunities = finalize(recs, now)
	return res.withTotal()
}

func (r Result) withTotal() Result {
	r.Total = len(r.Opportunities)
	return r
}

// finalize applies the shared tail of the pipeline: first-seen-wins dedup on
// the normalized title, drop records whose deadline is strictly in the past,
// sort ascending by deadline.
func finalize(records []models.Opportunity, now time.Time) []models.Opportunity {
	seen := make(map[string]bool, len(records))
	out := make([]models.Opportunity, 0, len(records))
	for _, rec := range records {
		key := NormalizeKey(rec.Title)
		if key == "" || seen[key] {
			continue
		}
		if rec.Deadline.Before(now) {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

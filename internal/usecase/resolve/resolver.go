// Package resolve expands registry queries into concrete leaf queries.
package resolve

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdash/internal/domain"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/metrics"
)

// Resolver holds the last resolved query set of one registry.
type Resolver struct {
	queries QueryLister
	ident   identity
	topN    topN
	logger  *zap.Logger

	mu         sync.RWMutex
	resolved   []query.Resolved
	hasRun     bool
	generation uint64
}

// New creates a resolver. terms and filters may be nil; topN queries then fail to resolve.
func New(queries QueryLister, terms TermsSource, filters FilterSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		queries: queries,
		topN:    topN{terms: terms, filters: filters},
		logger:  logger,
	}
}

// strategyFor picks the resolution strategy for a query type.
// Types without a dedicated strategy resolve to themselves.
func (r *Resolver) strategyFor(t query.Type) Strategy {
	switch t {
	case query.TopN:
		return r.topN
	case query.Lucene, query.Regex:
		return r.ident
	default:
		return r.ident
	}
}

// Resolve expands every live query concurrently and replaces the resolved set.
// Group order follows registry order regardless of completion order; ids are
// reassigned 0..N-1. Any failure fails the whole run and keeps the previous set.
func (r *Resolver) Resolve(ctx context.Context) ([]query.Resolved, error) {
	start := time.Now()
	qs := r.queries.List()
	groups := make([][]query.Resolved, len(qs))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range qs {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("query %d (%s): strategy panicked: %v", q.ID, q.Type, p)
				}
			}()
			res, err := r.strategyFor(q.Type).Resolve(gctx, q)
			if err != nil {
				return fmt.Errorf("query %d (%s): %w", q.ID, q.Type, err)
			}
			groups[i] = res
			return nil
		})
	}

	err := g.Wait()
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ResolveTotal.WithLabelValues("error").Inc()
		r.logger.Warn("Query resolution failed", zap.Int("queries", len(qs)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrResolution, err)
	}

	flat := flatten(groups)

	r.mu.Lock()
	r.resolved = flat
	r.hasRun = true
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	metrics.ResolveTotal.WithLabelValues("ok").Inc()
	metrics.ResolvedQueries.Set(float64(len(flat)))
	r.logger.Debug("Queries resolved",
		zap.Int("queries", len(qs)),
		zap.Int("resolved", len(flat)),
		zap.Uint64("generation", gen),
	)

	return slices.Clone(flat), nil
}

func flatten(groups [][]query.Resolved) []query.Resolved {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	flat := make([]query.Resolved, 0, n)
	for _, g := range groups {
		for _, rq := range g {
			rq.ID = len(flat)
			flat = append(flat, rq)
		}
	}
	return flat
}

// Resolved returns the last resolved set.
func (r *Resolver) Resolved() []query.Resolved {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.resolved)
}

// Generation counts successful Resolve runs. Consumers compare it to discard stale results.
func (r *Resolver) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// QueryObjsFor returns the resolved queries whose parent is in ids, in
// resolution order. A nil ids returns the full set. Before the first Resolve,
// live leaf queries stand in for themselves and abstract ones are skipped.
func (r *Resolver) QueryObjsFor(ids []int) []query.Resolved {
	r.mu.RLock()
	set, hasRun := r.resolved, r.hasRun
	r.mu.RUnlock()

	if !hasRun {
		set = r.provisional()
	}
	if ids == nil {
		return slices.Clone(set)
	}

	out := make([]query.Resolved, 0, len(ids))
	for _, rq := range set {
		if slices.Contains(ids, rq.Parent) {
			out = append(out, rq)
		}
	}
	return out
}

// Invalidate marks the resolved set stale after a registry change. Until the
// next Resolve, QueryObjsFor falls back to the live leaf queries.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.hasRun = false
	r.resolved = nil
	r.mu.Unlock()
}

// Stale reports whether Resolve has not run since creation or the last Invalidate.
func (r *Resolver) Stale() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.hasRun
}

// Get returns the resolved query with the given resolved id.
func (r *Resolver) Get(id int) (query.Resolved, bool) {
	for _, rq := range r.QueryObjsFor(nil) {
		if rq.ID == id {
			return rq, true
		}
	}
	return query.Resolved{}, false
}

func (r *Resolver) provisional() []query.Resolved {
	qs := r.queries.List()
	out := make([]query.Resolved, 0, len(qs))
	for _, q := range qs {
		if q.Type.IsAbstract() {
			continue
		}
		rq := query.Identity(q)
		rq.ID = len(out)
		out = append(out, rq)
	}
	return out
}

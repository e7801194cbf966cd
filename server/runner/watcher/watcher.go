// Package watcher keeps the semantic cache consistent with the job-listing
// table. It consumes the listing change feed and sweeps semantic entries
// mentioning the changed title, so a cached search can never outlive the
// listings it was computed from. Exact-cache entries are left to their short
// TTLs.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/plugin/ai/semcache"
)

// Event is one job-listing change.
type Event struct {
	// Op is "insert", "update" or "delete".
	Op string `json:"op"`
	// Title is the listing title; for deletes, the title before deletion.
	Title string `json:"title"`
}

// Feed is a subscription to job-listing changes.
type Feed interface {
	// Subscribe returns the event channel. The channel closes when the feed
	// fails or ctx is canceled; the runner resubscribes on its backoff.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}

// retryInterval is the fixed delay between feed (re)subscriptions.
const retryInterval = 5 * time.Second

// Runner consumes the feed and invalidates the semantic cache.
type Runner struct {
	feed    Feed
	cache   semcache.SemanticCache
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewRunner(feed Feed, cache semcache.SemanticCache, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		feed:    feed,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Run blocks until ctx is canceled, resubscribing to the feed after any
// failure. The watcher is supervisory: it never takes the process down.
func (r *Runner) Run(ctx context.Context) {
	for {
		if err := r.consume(ctx); err != nil {
			r.logger.Warn("change feed interrupted", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryInterval):
		}
	}
}

func (r *Runner) consume(ctx context.Context) error {
	events, err := r.feed.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			r.handle(ctx, event)
		}
	}
}

func (r *Runner) handle(ctx context.Context, event Event) {
	if event.Title == "" {
		// Nothing to sweep by; skip rather than invalidate everything.
		return
	}
	removed, err := r.cache.Invalidate(ctx, event.Title)
	if err != nil {
		r.logger.Error("semantic invalidation failed",
			"op", event.Op, "title", event.Title, "error", err)
		return
	}
	r.metrics.CacheInvalidation("listing_" + event.Op)
	r.logger.Info("semantic cache invalidated",
		"op", event.Op, "title", event.Title, "removed", removed)
}

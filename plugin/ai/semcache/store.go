package semcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/store"
)

// StoreIndex is the persistent semantic cache, backed by the store driver's
// vector search. This is the production tier.
type StoreIndex struct {
	driver  store.Driver
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewStoreIndex(driver store.Driver, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *StoreIndex {
	return &StoreIndex{
		driver:  driver,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *StoreIndex) Lookup(ctx context.Context, vector []float32, category string, threshold float64) (json.RawMessage, bool, error) {
	match, err := s.driver.NearestSemanticCacheEntry(ctx, &store.NearestSemanticEntry{
		Vector:   vector,
		Category: category,
		Now:      time.Now().Unix(),
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to query semantic cache")
	}
	if match == nil || match.Distance >= threshold {
		s.metrics.CacheMiss(observability.TierSemantic, category)
		return nil, false, nil
	}

	s.metrics.CacheHit(observability.TierSemantic, category)
	s.logger.Debug("semantic cache hit",
		slog.String("category", category),
		slog.Float64("distance", match.Distance),
		slog.String("cached_query", match.QueryText))
	return match.Payload, true, nil
}

func (s *StoreIndex) Store(ctx context.Context, queryText string, vector []float32, payload json.RawMessage, category string) error {
	now := time.Now()
	entry := &store.SemanticCacheEntry{
		ID:        store.SemanticEntryID(category, queryText),
		Category:  category,
		QueryText: queryText,
		Embedding: vector,
		Payload:   payload,
		CreatedTs: now.Unix(),
		ExpiresTs: now.Add(s.ttl).Unix(),
	}
	if err := s.driver.UpsertSemanticCacheEntry(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to store semantic cache entry")
	}
	s.metrics.CacheWrite(observability.TierSemantic, category)
	return nil
}

func (s *StoreIndex) Invalidate(ctx context.Context, term string) (int64, error) {
	n, err := s.driver.DeleteSemanticCacheEntriesByTerm(ctx, term)
	if err != nil {
		return 0, errors.Wrap(err, "failed to invalidate semantic cache entries")
	}
	return n, nil
}

func (s *StoreIndex) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.driver.DeleteExpiredSemanticCacheEntries(ctx, time.Now().Unix())
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up semantic cache")
	}
	return n, nil
}

var _ SemanticCache = (*StoreIndex)(nil)

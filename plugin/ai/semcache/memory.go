package semcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/store"
)

// MemoryIndex is a brute-force in-memory semantic cache. It scans every
// entry in the category on lookup, which is fine for the dev profile and
// for tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry

	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

type memoryEntry struct {
	category  string
	queryText string
	vector    []float32
	payload   json.RawMessage
	expiresAt time.Time
}

func NewMemoryIndex(ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

func (m *MemoryIndex) Lookup(ctx context.Context, vector []float32, category string, threshold float64) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	best := math.Inf(1)
	var bestEntry *memoryEntry
	for _, entry := range m.entries {
		if entry.category != category || now.After(entry.expiresAt) {
			continue
		}
		distance, err := cosineDistance(vector, entry.vector)
		if err != nil {
			continue
		}
		if distance < best {
			best = distance
			bestEntry = entry
		}
	}

	if bestEntry == nil || best >= threshold {
		m.metrics.CacheMiss(observability.TierSemantic, category)
		return nil, false, nil
	}

	m.metrics.CacheHit(observability.TierSemantic, category)
	m.logger.Debug("semantic cache hit",
		slog.String("category", category),
		slog.Float64("distance", best),
		slog.String("cached_query", bestEntry.queryText))
	return bestEntry.payload, true, nil
}

func (m *MemoryIndex) Store(ctx context.Context, queryText string, vector []float32, payload json.RawMessage, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := store.SemanticEntryID(category, queryText)
	m.entries[id] = &memoryEntry{
		category:  category,
		queryText: queryText,
		vector:    vector,
		payload:   payload,
		expiresAt: time.Now().Add(m.ttl),
	}
	m.metrics.CacheWrite(observability.TierSemantic, category)
	return nil
}

func (m *MemoryIndex) Invalidate(ctx context.Context, term string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	term = strings.ToLower(term)
	var removed int64
	for id, entry := range m.entries {
		if strings.Contains(strings.ToLower(entry.queryText), term) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryIndex) Cleanup(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var removed int64
	for id, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

// cosineDistance is 1 minus cosine similarity, matching pgvector's <=>
// operator.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, errors.New("zero vector")
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}

var _ SemanticCache = (*MemoryIndex)(nil)

// Package cache implements the exact cache tier: a fingerprint-keyed store
// with per-entry TTL. Reads degrade to a typed Unavailable result on
// connectivity failures so callers can always fall through to the
// authoritative source.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Status classifies the outcome of an exact-cache lookup. Unavailable is a
// degraded read (backing store unreachable); callers treat it like a miss
// but metrics keep the two apart.
type Status int

const (
	StatusMiss Status = iota
	StatusHit
	StatusUnavailable
)

// Result is the typed outcome of a lookup.
type Result struct {
	Status Status
	Value  json.RawMessage
}

// Hit reports whether the lookup produced a usable value.
func (r Result) Hit() bool {
	return r.Status == StatusHit
}

// ExactCache is the exact tier contract. Set is best-effort: implementations
// report write failures but callers never treat them as application errors.
type ExactCache interface {
	Lookup(ctx context.Context, key string) Result
	Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error
	Close() error
}

// KeyPrefix extracts the operation prefix from a cache key for metric labels.
func KeyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

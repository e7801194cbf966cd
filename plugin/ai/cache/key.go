package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MakeKey derives a deterministic cache key from an operation name and a
// JSON-serializable payload. The payload is canonicalized first (mapping
// keys recursively sorted) so that two logically-equal payloads always
// collapse to the same key regardless of field ordering.
func MakeKey(op string, payload map[string]any) string {
	raw, err := json.Marshal(canonicalize(payload))
	if err != nil {
		// Payloads are plain maps/slices/scalars built by this codebase; a
		// marshal failure means a programming error, not bad input.
		panic(fmt.Sprintf("cache: unserializable payload for %q: %v", op, err))
	}
	digest := sha256.Sum256(raw)
	return op + ":" + hex.EncodeToString(digest[:])
}

// canonicalize rewrites the payload into a form with a stable JSON encoding.
// encoding/json already sorts map[string]any keys; this normalizes the other
// map shapes and recurses into slices.
func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = canonicalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalize(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

// NormalizeTerm lower-cases a string leaf and collapses surrounding and
// internal runs of whitespace. Callers apply it to payload fields whose
// spelling should not fragment the key space.
func NormalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeSkills trims, lower-cases, de-duplicates, and sorts a skill list
// so equal skill sets collapse to one canonical form.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		n := NormalizeTerm(s)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

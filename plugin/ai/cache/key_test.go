package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeKeyDeterministic(t *testing.T) {
	// Structurally equal payloads built in different orders collapse to the
	// same key.
	k1 := MakeKey("job_search", map[string]any{
		"job_title":        "cloud support engineer",
		"location":         "london",
		"experience_level": "junior",
	})
	k2 := MakeKey("job_search", map[string]any{
		"experience_level": "junior",
		"job_title":        "cloud support engineer",
		"location":         "london",
	})
	assert.Equal(t, k1, k2)
	assert.Equal(t, "job_search", KeyPrefix(k1))
}

func TestMakeKeyNested(t *testing.T) {
	k1 := MakeKey("role_match", map[string]any{
		"skills": []string{"python", "sql", "tableau"},
		"meta":   map[string]any{"a": 1, "b": 2},
	})
	k2 := MakeKey("role_match", map[string]any{
		"meta":   map[string]any{"b": 2, "a": 1},
		"skills": []string{"python", "sql", "tableau"},
	})
	assert.Equal(t, k1, k2)
}

func TestMakeKeyDistinguishesPayloads(t *testing.T) {
	k1 := MakeKey("role_match", map[string]any{"skills": []string{"java"}})
	k2 := MakeKey("role_match", map[string]any{"skills": []string{"javascript"}})
	assert.NotEqual(t, k1, k2)

	// Same payload under a different operation is a different key space.
	k3 := MakeKey("job_search", map[string]any{"skills": []string{"java"}})
	assert.NotEqual(t, k1, k3)
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "cloud support engineer", NormalizeTerm("  Cloud   Support\tEngineer "))
	assert.Equal(t, "", NormalizeTerm("   "))
}

func TestNormalizeSkills(t *testing.T) {
	got := NormalizeSkills([]string{" SQL", "Python", "sql ", "", "Tableau"})
	assert.Equal(t, []string{"python", "sql", "tableau"}, got)
}

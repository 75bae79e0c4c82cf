package store

import (
	"math"
	"strings"

	"github.com/viterin/vek/vek32"
)

// CosineSimilarity returns the cosine similarity of a and b, or 0 when the
// vectors differ in length or either one is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	result := float64(vek32.CosineSimilarity(a, b))
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}

// EscapeLike escapes the ILIKE wildcards in a user supplied search string.
func EscapeLike(in string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(in)
}

// ClampLimit bounds a caller supplied page size.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

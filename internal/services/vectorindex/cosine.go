// File: internal/services/vectorindex/cosine.go
package vectorindex

import (
	"math"
	"sort"

	"github.com/iyunix/go-triage/internal/domain"
)

// cosineDistance returns 1 - cos(a, b). A zero-norm operand yields NaN.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// nearest sorts matches by ascending distance, ties by id, NaN last, and
// keeps the first topK.
func nearest(matches []domain.IndexMatch, topK int) []domain.IndexMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := matches[i].Distance, matches[j].Distance
		if math.IsNaN(di) != math.IsNaN(dj) {
			return !math.IsNaN(di)
		}
		if di != dj {
			return di < dj
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

package logits

import (
	"math"

	"github.com/samcharles93/lmexplorer/internal/lm"
)

// Candidate is one entry of a top-k selection.
type Candidate struct {
	ID    int     `json:"id"`
	Score float64 `json:"score"`
}

// TopK returns the k highest scores in descending order, ties broken by
// ascending id. The result holds min(k, len(scores)) candidates. NaN scores
// are never selected.
//
// This is an O(V*K) insertion pass suitable for small K.
func TopK[S ~[]F, F ~float32 | ~float64](scores S, k int) ([]Candidate, error) {
	if k <= 0 {
		return nil, lm.InvalidArgument("topk must be positive, got %d", k)
	}
	k = min(k, len(scores))
	top := make([]Candidate, 0, k+1)
	for i, s := range scores {
		v := float64(s)
		if math.IsNaN(v) {
			continue
		}
		pos := len(top)
		for pos > 0 && top[pos-1].Score < v {
			pos--
		}
		if pos >= k {
			continue
		}
		top = append(top, Candidate{})
		copy(top[pos+1:], top[pos:])
		top[pos] = Candidate{ID: i, Score: v}
		if len(top) > k {
			top = top[:k]
		}
	}
	return top, nil
}

// argmax returns the index of the maximum value in x, the lowest index on
// ties. It returns -1 when x holds no comparable value.
func argmax[F ~float32 | ~float64](x []F) int {
	bestI := -1
	bestV := math.Inf(-1)
	for i, v := range x {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		if bestI < 0 || f > bestV {
			bestI, bestV = i, f
		}
	}
	return bestI
}

// Package logits turns raw next-token scores into choices: top-k selection,
// temperature sampling and normalisation.
package logits

import (
	"math"
	"math/rand"

	"github.com/samcharles93/lmexplorer/internal/lm"
)

// Sampler draws token ids from score vectors. A Sampler is not safe for
// concurrent use; give each request its own.
type Sampler struct {
	rng  *rand.Rand
	prob []float64
}

// NewSampler returns a sampler seeded with seed.
func NewSampler(seed int64) *Sampler {
	return NewSamplerFromRand(rand.New(rand.NewSource(seed)))
}

// NewSamplerFromRand returns a sampler drawing from rng.
func NewSamplerFromRand(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample draws a single id with probability proportional to
// exp(score/temperature).
//
//  1. Temperature 0 returns the argmax, the limit of the distribution.
//  2. Otherwise the scores are scaled by the inverse temperature and a
//     softmax is computed with the maximum subtracted for stability.
//  3. A value drawn from [0,1) selects an id from the cumulative sum.
func (s *Sampler) Sample(scores []float32, temperature float64) (int, error) {
	if err := checkScores(scores, temperature); err != nil {
		return 0, err
	}
	if temperature == 0 {
		return argmax(scores), nil
	}

	maxv, _ := finiteMax(scores)
	if cap(s.prob) < len(scores) {
		s.prob = make([]float64, len(scores))
	}
	prob := s.prob[:len(scores)]
	invTemp := 1 / temperature
	var sum float64
	for i, v := range scores {
		e := math.Exp((float64(v) - maxv) * invTemp)
		if math.IsNaN(e) {
			e = 0
		}
		prob[i] = e
		sum += e
	}

	r := s.rng.Float64() * sum
	var c float64
	last := 0
	for i, p := range prob {
		if p == 0 {
			continue
		}
		c += p
		last = i
		if r < c {
			return i, nil
		}
	}
	return last, nil
}

// SampleDistinct draws min(k, V) distinct ids without replacement, each
// step proportional to exp(score/temperature) over the ids not yet drawn.
// It uses the Gumbel-top-k trick: perturb every scaled score with Gumbel
// noise and keep the k largest. Ids with a score of -Inf are never drawn,
// so fewer than k ids come back when fewer are reachable.
func (s *Sampler) SampleDistinct(scores []float32, k int, temperature float64) ([]int, error) {
	if k <= 0 {
		return nil, lm.InvalidArgument("topk must be positive, got %d", k)
	}
	if err := checkScores(scores, temperature); err != nil {
		return nil, err
	}

	keys := make([]float64, len(scores))
	for i, v := range scores {
		f := float64(v)
		switch {
		case math.IsNaN(f) || math.IsInf(f, -1):
			keys[i] = math.NaN()
		case temperature == 0:
			keys[i] = f
		default:
			keys[i] = f/temperature + gumbel(s.rng)
		}
	}
	top, err := TopK(keys, k)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(top))
	for i, c := range top {
		ids[i] = c.ID
	}
	return ids, nil
}

func gumbel(rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return -math.Log(-math.Log(u))
}

func checkScores(scores []float32, temperature float64) error {
	if temperature < 0 || math.IsNaN(temperature) {
		return lm.InvalidArgument("temperature must be non-negative, got %v", temperature)
	}
	if len(scores) == 0 {
		return lm.InvalidArgument("empty distribution")
	}
	if _, ok := finiteMax(scores); !ok {
		return lm.InvalidArgument("distribution has no finite score")
	}
	return nil
}

package logits

import "math"

// Softmax converts raw scores to probabilities. The maximum is subtracted
// before exponentiation so large scores do not overflow. An input with no
// finite score yields all zeros.
func Softmax[F ~float32 | ~float64](scores []F) []float64 {
	out := make([]float64, len(scores))
	maxv, ok := finiteMax(scores)
	if !ok {
		return out
	}
	var sum float64
	for i, s := range scores {
		e := math.Exp(float64(s) - maxv)
		if math.IsNaN(e) {
			e = 0
		}
		out[i] = e
		sum += e
	}
	inv := 1 / sum
	for i := range out {
		out[i] *= inv
	}
	return out
}

// SoftmaxTemperature returns the distribution Sample draws from at
// temperature: Softmax of scores/temperature, or all mass on the argmax when
// temperature is zero.
func SoftmaxTemperature[F ~float32 | ~float64](scores []F, temperature float64) []float64 {
	if temperature == 0 {
		out := make([]float64, len(scores))
		if id := argmax(scores); id >= 0 {
			out[id] = 1
		}
		return out
	}
	scaled := make([]float64, len(scores))
	for i, s := range scores {
		scaled[i] = float64(s) / temperature
	}
	return Softmax(scaled)
}

// LogSoftmax returns log(Softmax(scores)) computed as s - max - log(sum).
func LogSoftmax[F ~float32 | ~float64](scores []F) []float64 {
	out := make([]float64, len(scores))
	maxv, ok := finiteMax(scores)
	if !ok {
		for i := range out {
			out[i] = math.Inf(-1)
		}
		return out
	}
	var sum float64
	for _, s := range scores {
		e := math.Exp(float64(s) - maxv)
		if !math.IsNaN(e) {
			sum += e
		}
	}
	lse := maxv + math.Log(sum)
	for i, s := range scores {
		out[i] = float64(s) - lse
	}
	return out
}

func finiteMax[F ~float32 | ~float64](scores []F) (float64, bool) {
	maxv := math.Inf(-1)
	found := false
	for _, s := range scores {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if !found || f > maxv {
			maxv, found = f, true
		}
	}
	return maxv, found
}

package gene

import (
	"math/rand"
)

// WeightControl selects a weighted subset of candidates. D in [0, 1] scales
// the expected subset size from one (D=0) up to every candidate (D=1).
type WeightControl struct {
	D float64
}

// Select returns the indexes of the chosen candidates in ascending order.
// At least one index is returned whenever weights is non-empty.
func (w WeightControl) Select(rng *rand.Rand, weights []float64) []int {
	n := len(weights)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []int{0}
	}

	sum := 0.0
	for _, weight := range weights {
		if weight > 0 {
			sum += weight
		}
	}
	if sum <= 0 {
		return []int{rng.Intn(n)}
	}

	d := w.D
	if d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	expected := 1 + d*float64(n-1)

	var out []int
	for i, weight := range weights {
		if weight <= 0 {
			continue
		}
		p := weight / sum * expected
		if p >= 1 || rng.Float64() < p {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		out = []int{roulette(rng, weights, sum)}
	}
	return out
}

func roulette(rng *rand.Rand, weights []float64, sum float64) int {
	pick := rng.Float64() * sum
	last := 0
	for i, weight := range weights {
		if weight <= 0 {
			continue
		}
		last = i
		pick -= weight
		if pick < 0 {
			return i
		}
	}
	return last
}

package impact

import "fmt"

// Weights derives adaptive selection weights from impact history. Each
// candidate's static weight is scaled by one plus its improvement count on
// targets. When every candidate scores the same the static weights are
// returned unchanged. A nil impact scores zero.
func Weights(static []float64, impacts []*GeneImpact, targets []int) ([]float64, error) {
	if len(static) != len(impacts) {
		return nil, fmt.Errorf("mismatched weights and impacts: %d != %d", len(static), len(impacts))
	}

	scores := make([]int, len(impacts))
	tie := true
	for i, imp := range impacts {
		if imp != nil {
			scores[i] = imp.Improvements(targets)
		}
		if scores[i] != scores[0] {
			tie = false
		}
	}

	out := make([]float64, len(static))
	for i, w := range static {
		if tie {
			out[i] = w
			continue
		}
		out[i] = w * float64(1+scores[i])
	}
	return out, nil
}

// Classify compares fitness values per target, higher is better. Targets
// absent from previous count as zero.
func Classify(previous, current map[int]float64) map[int]Outcome {
	out := make(map[int]Outcome, len(current))
	for target, value := range current {
		before := previous[target]
		switch {
		case value > before:
			out[target] = Better
		case value < before:
			out[target] = Worse
		default:
			out[target] = Equal
		}
	}
	for target, before := range previous {
		if _, ok := current[target]; ok {
			continue
		}
		if before > 0 {
			out[target] = Worse
		} else {
			out[target] = Equal
		}
	}
	return out
}

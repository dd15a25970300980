package main

import (
	"context"
	"strings"

	"genesearch/pkg/genesearch"
)

// actionCoverage scores a candidate without a system under test. Target
// i+1 is covered once action i is called by a test action. The last
// target rewards candidates whose actions send distinct documents.
func actionCoverage(actionIDs []string) genesearch.FitnessFunc {
	index := make(map[string]int, len(actionIDs))
	for i, id := range actionIDs {
		index[id] = i + 1
	}
	variety := len(actionIDs) + 1
	return func(ctx context.Context, ev genesearch.Evaluation) (map[int]float64, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make(map[int]float64, len(actionIDs)+1)
		for _, id := range index {
			out[id] = 0
		}
		distinct := make(map[string]struct{}, len(ev.Actions))
		for _, a := range ev.Actions {
			if id, ok := index[a.ActionID]; ok {
				out[id] = 1
			}
			distinct[strings.TrimSpace(a.Document)] = struct{}{}
		}
		out[variety] = 0
		if len(ev.Actions) > 0 {
			out[variety] = float64(len(distinct)) / float64(len(ev.Actions))
		}
		return out, nil
	}
}

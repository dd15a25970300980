// Package impact records how mutating a gene correlated with changes on
// coverage targets. Counters only grow for the lifetime of a record.
package impact

import (
	"sort"
)

// Outcome classifies the effect of one evaluated mutation on one target.
type Outcome int

const (
	Equal Outcome = iota
	Better
	Worse
)

func (o Outcome) String() string {
	switch o {
	case Better:
		return "better"
	case Worse:
		return "worse"
	default:
		return "equal"
	}
}

// Counters holds the per-target bookkeeping of one gene (or gene part).
type Counters struct {
	TimesToManipulate int         `json:"times_to_manipulate"`
	TimesOfNoImpact   int         `json:"times_of_no_impact"`
	Improved          map[int]int `json:"improved,omitempty"`
	NoImpact          map[int]int `json:"no_impact,omitempty"`
	Worse             map[int]int `json:"worse,omitempty"`
}

// Update increments the counters for one evaluated mutation.
func (c *Counters) Update(outcomes map[int]Outcome) {
	c.TimesToManipulate++
	changed := false
	for target, outcome := range outcomes {
		switch outcome {
		case Better:
			c.Improved = increment(c.Improved, target)
			changed = true
		case Worse:
			c.Worse = increment(c.Worse, target)
			changed = true
		default:
			c.NoImpact = increment(c.NoImpact, target)
		}
	}
	if !changed {
		c.TimesOfNoImpact++
	}
}

// TimesOfImpact counts mutations that changed the target either way.
func (c Counters) TimesOfImpact(target int) int {
	return c.Improved[target] + c.Worse[target]
}

// Impactful reports whether any mutation ever changed any target.
func (c Counters) Impactful() bool {
	for _, n := range c.Improved {
		if n > 0 {
			return true
		}
	}
	for _, n := range c.Worse {
		if n > 0 {
			return true
		}
	}
	return false
}

// ImpactfulTargets lists targets with at least one impactful mutation.
func (c Counters) ImpactfulTargets() []int {
	set := make(map[int]struct{})
	for target, n := range c.Improved {
		if n > 0 {
			set[target] = struct{}{}
		}
	}
	for target, n := range c.Worse {
		if n > 0 {
			set[target] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// NoImpactTargets lists targets on which some mutation changed nothing.
func (c Counters) NoImpactTargets() []int {
	set := make(map[int]struct{})
	for target, n := range c.NoImpact {
		if n > 0 {
			set[target] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Improvements sums improvement counts over targets, or over every target
// when targets is empty.
func (c Counters) Improvements(targets []int) int {
	total := 0
	if len(targets) == 0 {
		for _, n := range c.Improved {
			total += n
		}
		return total
	}
	for _, target := range targets {
		total += c.Improved[target]
	}
	return total
}

func (c Counters) copy() Counters {
	return Counters{
		TimesToManipulate: c.TimesToManipulate,
		TimesOfNoImpact:   c.TimesOfNoImpact,
		Improved:          copyCounts(c.Improved),
		NoImpact:          copyCounts(c.NoImpact),
		Worse:             copyCounts(c.Worse),
	}
}

func increment(m map[int]int, key int) map[int]int {
	if m == nil {
		m = make(map[int]int)
	}
	m[key]++
	return m
}

func copyCounts(m map[int]int) map[int]int {
	if m == nil {
		return nil
	}
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

package archive

import (
	"sort"
	"strings"

	"genesearch/internal/search"
)

const structureSeparator = ";"

// StructureRecord is the history of one action sequence shape.
type StructureRecord struct {
	Key       string  `json:"key"`
	Size      int     `json:"size"`
	Times     int     `json:"times"`
	BestTotal float64 `json:"best_total"`
}

// StructureImpact remembers which action sequences reached which total
// fitness.
type StructureImpact struct {
	records map[string]*StructureRecord
}

func NewStructureImpact() *StructureImpact {
	return &StructureImpact{records: make(map[string]*StructureRecord)}
}

// StructureKey identifies the shape of an individual by its action names.
func StructureKey(ind search.Individual) string {
	actions := ind.Actions()
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name()
	}
	return strings.Join(names, structureSeparator)
}

// Update records one evaluation of ind.
func (s *StructureImpact) Update(ind search.Individual, fitness search.Fitness) {
	key := StructureKey(ind)
	rec, ok := s.records[key]
	total := fitness.Total()
	if !ok {
		rec = &StructureRecord{Key: key, Size: len(ind.Actions()), BestTotal: total}
		s.records[key] = rec
	}
	rec.Times++
	if total > rec.BestTotal {
		rec.BestTotal = total
	}
}

func (s *StructureImpact) Get(key string) (StructureRecord, bool) {
	rec, ok := s.records[key]
	if !ok {
		return StructureRecord{}, false
	}
	return *rec, true
}

// Best returns the shape with the highest total, ties going to the more
// frequently reached one.
func (s *StructureImpact) Best() (StructureRecord, bool) {
	records := s.Records()
	if len(records) == 0 {
		return StructureRecord{}, false
	}
	best := records[0]
	for _, rec := range records[1:] {
		if rec.BestTotal > best.BestTotal || (rec.BestTotal == best.BestTotal && rec.Times > best.Times) {
			best = rec
		}
	}
	return best, true
}

// Records returns every shape ordered by key.
func (s *StructureImpact) Records() []StructureRecord {
	out := make([]StructureRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *StructureImpact) Copy() *StructureImpact {
	out := NewStructureImpact()
	for key, rec := range s.records {
		cp := *rec
		out.records[key] = &cp
	}
	return out
}

package archive

import (
	"fmt"

	"genesearch/internal/search"
)

// TemplateIndex locates the impacts of one initializing action inside a
// template: Key names the template and Index the position within it.
type TemplateIndex struct {
	Key   string `json:"key"`
	Index int    `json:"index"`
}

// InitializationImpacts tracks the impacts of the initializing actions of an
// individual. When abstract, repeated groups share the impacts of the first
// group with the same template key and lookups go through the index map.
type InitializationImpacts struct {
	abstract bool

	sequence  []*ImpactsOfAction
	templates map[string][]*ImpactsOfAction
	keys      []string
	// indexMap has one entry per element of sequence when abstract.
	indexMap []TemplateIndex
}

func NewInitializationImpacts(abstract bool) *InitializationImpacts {
	return &InitializationImpacts{abstract: abstract, templates: make(map[string][]*ImpactsOfAction)}
}

func (ii *InitializationImpacts) Abstract() bool { return ii.abstract }

func (ii *InitializationImpacts) initialized() bool {
	return len(ii.sequence) > 0 || len(ii.templates) > 0 || len(ii.indexMap) > 0
}

// Init records the impacts of the given groups. It fails when impacts were
// already recorded.
func (ii *InitializationImpacts) Init(groups [][]search.Action) error {
	if ii.initialized() {
		return ErrDuplicatedInitialization
	}
	ii.Append(groups)
	return nil
}

// Append records groups added after the existing ones.
func (ii *InitializationImpacts) Append(groups [][]search.Action) {
	for _, group := range groups {
		impacts := make([]*ImpactsOfAction, len(group))
		for i, a := range group {
			impacts[i] = NewImpactsOfAction(a)
		}
		ii.sequence = append(ii.sequence, impacts...)
		if ii.abstract {
			key := templateKeyOf(impacts)
			ii.putTemplate(key, impacts)
			for i := range impacts {
				ii.indexMap = append(ii.indexMap, TemplateIndex{Key: key, Index: i})
			}
		}
	}
}

func (ii *InitializationImpacts) putTemplate(key string, impacts []*ImpactsOfAction) {
	if _, ok := ii.templates[key]; ok {
		return
	}
	ii.templates[key] = impacts
	ii.keys = append(ii.keys, key)
}

func templateKeyOf(impacts []*ImpactsOfAction) string {
	names := make([]string, len(impacts))
	for i, a := range impacts {
		names[i] = a.ActionName
	}
	return TemplateKey(names)
}

// Truncate reconciles the impacts with the surviving groups of initializing
// actions, which must be a prefix of the recorded sequence. Impacts of
// surviving actions are kept; templates with no surviving occurrence are
// removed.
func (ii *InitializationImpacts) Truncate(groups [][]search.Action) error {
	var flat []search.Action
	for _, group := range groups {
		flat = append(flat, group...)
	}
	original := len(ii.sequence)
	if len(flat) > original {
		return fmt.Errorf("%w: %d initializing actions after truncation, %d recorded", ErrInconsistentImpacts, len(flat), original)
	}
	if len(flat) == original {
		return nil
	}

	sequence := make([]*ImpactsOfAction, len(flat))
	for i, a := range flat {
		existing, err := ii.ImpactOfAction(a.Name(), i)
		if err != nil || existing == nil {
			existing = NewImpactsOfAction(a)
		}
		sequence[i] = existing
	}
	ii.sequence = sequence
	if !ii.abstract {
		return nil
	}

	ii.indexMap = ii.indexMap[:0]
	alive := make(map[string]bool)
	offset := 0
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		impacts := sequence[offset : offset+len(group)]
		key := templateKeyOf(impacts)
		ii.putTemplate(key, impacts)
		alive[key] = true
		for i := range group {
			ii.indexMap = append(ii.indexMap, TemplateIndex{Key: key, Index: i})
		}
		offset += len(group)
	}

	keys := ii.keys[:0]
	for _, key := range ii.keys {
		if alive[key] {
			keys = append(keys, key)
			continue
		}
		delete(ii.templates, key)
	}
	ii.keys = keys
	return nil
}

// ImpactOfAction returns the impacts of the initializing action at index.
// An empty actionName skips the name check.
func (ii *InitializationImpacts) ImpactOfAction(actionName string, index int) (*ImpactsOfAction, error) {
	if index < 0 || index >= len(ii.sequence) {
		return nil, fmt.Errorf("%w: initialization index %d of %d", ErrIndexOutOfRange, index, len(ii.sequence))
	}
	if name := ii.sequence[index].ActionName; actionName != "" && name != actionName {
		return nil, fmt.Errorf("%w: initialization action %d is %q, asked for %q", ErrActionMismatch, index, name, actionName)
	}
	if !ii.abstract {
		return ii.sequence[index], nil
	}
	at := ii.indexMap[index]
	template := ii.templates[at.Key]
	if at.Index >= len(template) {
		return nil, nil
	}
	return template[at.Index], nil
}

// OriginalSize is the number of initializing actions recorded.
func (ii *InitializationImpacts) OriginalSize() int { return len(ii.sequence) }

// Size counts templates when abstract, otherwise recorded actions.
func (ii *InitializationImpacts) Size() int {
	if ii.abstract {
		return len(ii.templates)
	}
	return len(ii.sequence)
}

// All returns every distinct impact record: template members in key order
// when abstract, otherwise the full sequence.
func (ii *InitializationImpacts) All() []*ImpactsOfAction {
	if !ii.abstract {
		return ii.sequence
	}
	var out []*ImpactsOfAction
	for _, key := range ii.keys {
		out = append(out, ii.templates[key]...)
	}
	return out
}

// TemplateKeys lists the template keys in insertion order.
func (ii *InitializationImpacts) TemplateKeys() []string {
	return append([]string(nil), ii.keys...)
}

// IndexMap returns a copy of the occurrence to template mapping.
func (ii *InitializationImpacts) IndexMap() []TemplateIndex {
	return append([]TemplateIndex(nil), ii.indexMap...)
}

// Template returns the impacts of the template called key.
func (ii *InitializationImpacts) Template(key string) []*ImpactsOfAction {
	return ii.templates[key]
}

// Copy returns a deep copy. Records shared between the sequence and the
// templates stay shared in the copy.
func (ii *InitializationImpacts) Copy() *InitializationImpacts {
	return ii.duplicate((*ImpactsOfAction).Copy)
}

// Clone is Copy with gene impact records shared with ii.
func (ii *InitializationImpacts) Clone() *InitializationImpacts {
	return ii.duplicate((*ImpactsOfAction).Clone)
}

func (ii *InitializationImpacts) duplicate(dup func(*ImpactsOfAction) *ImpactsOfAction) *InitializationImpacts {
	seen := make(map[*ImpactsOfAction]*ImpactsOfAction)
	get := func(a *ImpactsOfAction) *ImpactsOfAction {
		if cp, ok := seen[a]; ok {
			return cp
		}
		cp := dup(a)
		seen[a] = cp
		return cp
	}

	out := NewInitializationImpacts(ii.abstract)
	out.sequence = make([]*ImpactsOfAction, len(ii.sequence))
	for i, a := range ii.sequence {
		out.sequence[i] = get(a)
	}
	for _, key := range ii.keys {
		template := make([]*ImpactsOfAction, len(ii.templates[key]))
		for i, a := range ii.templates[key] {
			template[i] = get(a)
		}
		out.templates[key] = template
		out.keys = append(out.keys, key)
	}
	out.indexMap = append([]TemplateIndex(nil), ii.indexMap...)
	return out
}

// InitFrom clones other into ii, which must be empty.
func (ii *InitializationImpacts) InitFrom(other *InitializationImpacts) error {
	if ii.initialized() {
		return ErrDuplicatedInitialization
	}
	if ii.abstract != other.abstract {
		return fmt.Errorf("%w: abstract=%t cannot take abstract=%t", ErrInconsistentImpacts, ii.abstract, other.abstract)
	}
	*ii = *other.Clone()
	return nil
}

package impact

import "sort"

// Kind names the decomposition carried by a GeneImpact.
type Kind string

const (
	KindValue    Kind = "value"
	KindDate     Kind = "date"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
	KindOptional Kind = "optional"
)

// PartSeparator joins a gene impact id with the name of one of its parts.
const PartSeparator = "/"

// GeneImpact is the impact record of one gene. Composite genes carry exactly
// one typed decomposition; value genes carry none.
type GeneImpact struct {
	ID string `json:"id"`
	Counters

	Date     *DateImpact     `json:"date,omitempty"`
	Object   *ObjectImpact   `json:"object,omitempty"`
	Array    *ArrayImpact    `json:"array,omitempty"`
	Optional *OptionalImpact `json:"optional,omitempty"`
}

// DateImpact splits a date impact into its year, month and day parts.
type DateImpact struct {
	Year  *GeneImpact `json:"year"`
	Month *GeneImpact `json:"month"`
	Day   *GeneImpact `json:"day"`
}

// ObjectImpact keeps one impact per field name.
type ObjectImpact struct {
	Fields map[string]*GeneImpact `json:"fields"`
}

// ArrayImpact separates size changes from element value changes. All
// elements share the Element record.
type ArrayImpact struct {
	Size    *GeneImpact `json:"size"`
	Element *GeneImpact `json:"element"`
}

// OptionalImpact separates presence toggles from inner value changes.
type OptionalImpact struct {
	Presence *GeneImpact `json:"presence"`
	Inner    *GeneImpact `json:"inner"`
}

// New returns an impact record for a value gene.
func New(id string) *GeneImpact {
	return &GeneImpact{ID: id}
}

func NewDate(id string) *GeneImpact {
	return &GeneImpact{
		ID: id,
		Date: &DateImpact{
			Year:  New(PartID(id, "year")),
			Month: New(PartID(id, "month")),
			Day:   New(PartID(id, "day")),
		},
	}
}

func NewObject(id string, fields map[string]*GeneImpact) *GeneImpact {
	if fields == nil {
		fields = make(map[string]*GeneImpact)
	}
	return &GeneImpact{ID: id, Object: &ObjectImpact{Fields: fields}}
}

func NewArray(id string, element *GeneImpact) *GeneImpact {
	return &GeneImpact{
		ID: id,
		Array: &ArrayImpact{
			Size:    New(PartID(id, "size")),
			Element: element,
		},
	}
}

func NewOptional(id string, inner *GeneImpact) *GeneImpact {
	return &GeneImpact{
		ID: id,
		Optional: &OptionalImpact{
			Presence: New(PartID(id, "presence")),
			Inner:    inner,
		},
	}
}

// PartID derives the id of a sub-impact.
func PartID(id, part string) string {
	return id + PartSeparator + part
}

func (g *GeneImpact) Kind() Kind {
	switch {
	case g.Date != nil:
		return KindDate
	case g.Object != nil:
		return KindObject
	case g.Array != nil:
		return KindArray
	case g.Optional != nil:
		return KindOptional
	default:
		return KindValue
	}
}

// Copy returns an independent deep copy.
func (g *GeneImpact) Copy() *GeneImpact {
	if g == nil {
		return nil
	}
	out := &GeneImpact{ID: g.ID, Counters: g.Counters.copy()}
	if g.Date != nil {
		out.Date = &DateImpact{
			Year:  g.Date.Year.Copy(),
			Month: g.Date.Month.Copy(),
			Day:   g.Date.Day.Copy(),
		}
	}
	if g.Object != nil {
		fields := make(map[string]*GeneImpact, len(g.Object.Fields))
		for name, field := range g.Object.Fields {
			fields[name] = field.Copy()
		}
		out.Object = &ObjectImpact{Fields: fields}
	}
	if g.Array != nil {
		out.Array = &ArrayImpact{Size: g.Array.Size.Copy(), Element: g.Array.Element.Copy()}
	}
	if g.Optional != nil {
		out.Optional = &OptionalImpact{Presence: g.Optional.Presence.Copy(), Inner: g.Optional.Inner.Copy()}
	}
	return out
}

// Parts walks every sub-impact below g, depth first.
func (g *GeneImpact) Parts(visit func(*GeneImpact)) {
	for _, part := range g.children() {
		if part == nil {
			continue
		}
		visit(part)
		part.Parts(visit)
	}
}

func (g *GeneImpact) children() []*GeneImpact {
	switch {
	case g.Date != nil:
		return []*GeneImpact{g.Date.Year, g.Date.Month, g.Date.Day}
	case g.Object != nil:
		out := make([]*GeneImpact, 0, len(g.Object.Fields))
		for _, name := range sortedNames(g.Object.Fields) {
			out = append(out, g.Object.Fields[name])
		}
		return out
	case g.Array != nil:
		return []*GeneImpact{g.Array.Size, g.Array.Element}
	case g.Optional != nil:
		return []*GeneImpact{g.Optional.Presence, g.Optional.Inner}
	default:
		return nil
	}
}

func sortedNames(m map[string]*GeneImpact) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

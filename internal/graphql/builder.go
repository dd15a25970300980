package graphql

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"genesearch/internal/gene"
	"genesearch/internal/metrics"
)

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	// OnlyValidDates restricts synthesized Date genes to calendar dates.
	OnlyValidDates bool
	// MaxArraySize bounds synthesized lists, gene.DefaultMaxArraySize if
	// not positive.
	MaxArraySize int
}

// session holds the state of one Build call. Action ids count from 1 per
// session.
type session struct {
	schema  *Schema
	opts    Options
	log     *slog.Logger
	nextID  int
	warned  map[string]struct{}
	actions map[string]*Action
}

// Build synthesizes one action per field of the query and mutation root
// types, keyed by action id. Unsupported kinds never fail the build; each
// distinct one is logged once and replaced by a string placeholder.
func Build(schema *Schema, opts Options) (map[string]*Action, error) {
	if schema == nil {
		return nil, ErrMissingSchema
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxArraySize <= 0 {
		opts.MaxArraySize = gene.DefaultMaxArraySize
	}
	s := &session{
		schema:  schema,
		opts:    opts,
		log:     logger.With("component", "graphql"),
		warned:  make(map[string]struct{}),
		actions: make(map[string]*Action),
	}

	roots := []struct {
		name string
		typ  OperationType
	}{
		{schema.queryTypeName(), Query},
		{schema.mutationTypeName(), Mutation},
	}
	for _, root := range roots {
		t := schema.Type(root.name)
		if t == nil {
			continue
		}
		if t.Kind != KindObject {
			return nil, fmt.Errorf("root type %s has kind %s", root.name, t.Kind)
		}
		for _, f := range t.Fields {
			if err := s.addOperation(f, root.typ); err != nil {
				return nil, err
			}
		}
	}
	opts.Metrics.ObserveActions(len(s.actions))
	s.log.Debug("synthesized actions", "count", len(s.actions), "unsupported_kinds", len(s.warned))
	return s.actions, nil
}

func (s *session) addOperation(f Field, typ OperationType) error {
	if f.Name == "" {
		return fmt.Errorf("%s field without a name", typ)
	}
	s.nextID++
	a := &Action{
		ID:        fmt.Sprintf("%s%d", f.Name, s.nextID),
		Operation: f.Name,
		Type:      typ,
	}
	for _, arg := range f.Args {
		if arg.Name == "" {
			return fmt.Errorf("%s: argument without a name", f.Name)
		}
		a.Params = append(a.Params, Param{Name: arg.Name, Gene: s.resolve(arg.Name, &arg.Type, nil)})
	}

	ret := f.Type.Named()
	name := f.Name
	if ret != nil && ret.Name != "" {
		name = ret.Name
	}
	a.Params = append(a.Params, Param{Name: name, Gene: s.resolve(name, &f.Type, nil), Return: true})
	s.actions[a.ID] = a
	return nil
}

// resolve builds the gene for a possibly nullable reference. Nullable
// values are wrapped in an Optional, except cycle markers.
func (s *session) resolve(name string, ref *TypeRef, path []string) gene.Gene {
	if ref == nil {
		return s.unsupported(name, "missing type")
	}
	if ref.Kind == KindNonNull {
		return s.resolveNonNull(name, ref.OfType, path)
	}
	g := s.resolveNonNull(name, ref, path)
	if _, ok := g.(*gene.CycleGene); ok {
		return g
	}
	return gene.NewOptionalGene(name, g)
}

func (s *session) resolveNonNull(name string, ref *TypeRef, path []string) gene.Gene {
	if ref == nil {
		return s.unsupported(name, "missing type")
	}
	switch ref.Kind {
	case KindNonNull:
		return s.resolveNonNull(name, ref.OfType, path)
	case KindList:
		return gene.NewArrayGene(name, s.resolve(name, ref.OfType, path), s.opts.MaxArraySize)
	case KindScalar:
		return s.scalar(name, ref.Name)
	case KindObject, KindInputObject:
		return s.object(name, ref.Name, path)
	default:
		return s.unsupported(name, string(ref.Kind))
	}
}

func (s *session) scalar(name, typeName string) gene.Gene {
	switch typeName {
	case "Int":
		return gene.NewInteger(name)
	case "Float":
		return gene.NewFloatGene(name, 0)
	case "String", "ID":
		return gene.NewStringGene(name, "")
	case "Boolean":
		return gene.NewBooleanGene(name, false)
	case "Date":
		return gene.NewDateGene(name, s.opts.OnlyValidDates)
	default:
		return s.unsupported(name, "SCALAR "+typeName)
	}
}

// object expands the fields of a named object or input object. A type
// already on path becomes a cycle marker.
func (s *session) object(name, typeName string, path []string) gene.Gene {
	if slices.Contains(path, typeName) {
		return gene.NewCycleGene(name, typeName)
	}
	t := s.schema.Type(typeName)
	if t == nil {
		return s.unsupported(name, "undeclared type "+typeName)
	}

	next := append(slices.Clip(path), typeName)
	var fields []gene.Gene
	switch t.Kind {
	case KindObject:
		for _, f := range t.Fields {
			if f.Name == "" || strings.HasPrefix(f.Name, "__") {
				continue
			}
			fields = append(fields, s.resolve(f.Name, &f.Type, next))
		}
	case KindInputObject:
		for _, f := range t.InputFields {
			if f.Name == "" {
				continue
			}
			fields = append(fields, s.resolve(f.Name, &f.Type, next))
		}
	default:
		return s.unsupported(name, string(t.Kind))
	}
	return gene.NewObjectGene(name, fields, typeName)
}

func (s *session) unsupported(name, kind string) gene.Gene {
	if _, ok := s.warned[kind]; !ok {
		s.warned[kind] = struct{}{}
		s.log.Warn("unsupported schema kind, using a string placeholder", "kind", kind, "field", name)
		s.opts.Metrics.ObserveUnsupportedKind(kind)
	}
	return gene.NewStringGene(name, "")
}

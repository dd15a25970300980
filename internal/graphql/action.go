package graphql

import (
	"fmt"
	"strings"

	"genesearch/internal/gene"
	"genesearch/internal/search"
)

type OperationType int

const (
	Query OperationType = iota
	Mutation
)

func (t OperationType) String() string {
	if t == Mutation {
		return "mutation"
	}
	return "query"
}

// Param is an argument of an operation or, when Return is set, the
// selection of its result.
type Param struct {
	Name   string
	Gene   gene.Gene
	Return bool
}

// Action is an operation template synthesized from a schema. Its genes are
// templates; use Call to get an independent copy for a test case.
type Action struct {
	ID        string
	Operation string
	Type      OperationType
	Params    []Param
}

var _ search.Action = (*Action)(nil)

// Name is the action id. Operation names repeat when the query and mutation
// roots share a field name.
func (a *Action) Name() string { return a.ID }

func (a *Action) Genes() []gene.Gene {
	out := make([]gene.Gene, len(a.Params))
	for i, p := range a.Params {
		out[i] = p.Gene
	}
	return out
}

// Call copies the template genes into a new call.
func (a *Action) Call() (*search.Call, error) {
	genes := make([]gene.Gene, len(a.Params))
	for i, p := range a.Params {
		genes[i] = p.Gene.Copy()
	}
	return search.NewCall(a.ID, genes...)
}

// Document prints the operation with the current values of the given
// genes, which must be laid out like Params.
func (a *Action) Document(genes []gene.Gene) (string, error) {
	if len(genes) != len(a.Params) {
		return "", fmt.Errorf("%s: %d genes for %d params", a.Operation, len(genes), len(a.Params))
	}
	var args []string
	selection := ""
	for i, p := range a.Params {
		g := genes[i]
		if p.Return {
			selection = gene.SelectionSet(g)
			continue
		}
		if !g.IsPrintable() {
			continue
		}
		args = append(args, p.Name+": "+argument(g))
	}

	var b strings.Builder
	b.WriteString(a.Type.String())
	b.WriteString(" { ")
	b.WriteString(a.Operation)
	if len(args) > 0 {
		b.WriteString("(" + strings.Join(args, ", ") + ")")
	}
	if selection != "" {
		b.WriteString(" " + selection)
	}
	b.WriteString(" }")
	return b.String(), nil
}

// argument prints g as a GraphQL input literal: object keys are bare
// names, everything else follows its JSON form.
func argument(g gene.Gene) string {
	switch v := g.(type) {
	case *gene.OptionalGene:
		if !v.IsActive() {
			return "null"
		}
		return argument(v.Inner())
	case *gene.ObjectGene:
		var fields []string
		for _, f := range v.Fields() {
			if f.IsPrintable() {
				fields = append(fields, f.Name()+": "+argument(f))
			}
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case *gene.ArrayGene:
		var elems []string
		for _, e := range v.Elements() {
			if e.IsPrintable() {
				elems = append(elems, argument(e))
			}
		}
		return "[" + strings.Join(elems, ", ") + "]"
	default:
		return g.PrintableString(gene.PrintOptions{Mode: gene.EscapeJSON, Format: gene.FormatJavaScript})
	}
}

// Package graphql turns a GraphQL introspection result into action
// templates whose inputs and selections are gene trees.
package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrMissingSchema = errors.New("document has no __schema")

type Kind string

const (
	KindScalar      Kind = "SCALAR"
	KindObject      Kind = "OBJECT"
	KindInterface   Kind = "INTERFACE"
	KindUnion       Kind = "UNION"
	KindEnum        Kind = "ENUM"
	KindInputObject Kind = "INPUT_OBJECT"
	KindList        Kind = "LIST"
	KindNonNull     Kind = "NON_NULL"
)

// TypeRef is a possibly wrapped reference to a named type. LIST and
// NON_NULL wrappers carry the wrapped reference in OfType.
type TypeRef struct {
	Kind   Kind     `json:"kind" yaml:"kind"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	OfType *TypeRef `json:"ofType,omitempty" yaml:"ofType,omitempty"`
}

// Named returns the innermost named reference.
func (r *TypeRef) Named() *TypeRef {
	for r != nil && r.OfType != nil && r.Name == "" {
		r = r.OfType
	}
	return r
}

type InputValue struct {
	Name string  `json:"name" yaml:"name"`
	Type TypeRef `json:"type" yaml:"type"`
}

type Field struct {
	Name string       `json:"name" yaml:"name"`
	Args []InputValue `json:"args,omitempty" yaml:"args,omitempty"`
	Type TypeRef      `json:"type" yaml:"type"`
}

type FullType struct {
	Kind        Kind         `json:"kind" yaml:"kind"`
	Name        string       `json:"name" yaml:"name"`
	Fields      []Field      `json:"fields,omitempty" yaml:"fields,omitempty"`
	InputFields []InputValue `json:"inputFields,omitempty" yaml:"inputFields,omitempty"`
}

type NamedType struct {
	Name string `json:"name" yaml:"name"`
}

type Schema struct {
	QueryType    *NamedType `json:"queryType,omitempty" yaml:"queryType,omitempty"`
	MutationType *NamedType `json:"mutationType,omitempty" yaml:"mutationType,omitempty"`
	Types        []FullType `json:"types" yaml:"types"`
}

// Type looks a named type up, nil if the schema does not declare it.
func (s *Schema) Type(name string) *FullType {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i]
		}
	}
	return nil
}

func (s *Schema) queryTypeName() string {
	if s.QueryType != nil && s.QueryType.Name != "" {
		return s.QueryType.Name
	}
	return "Query"
}

func (s *Schema) mutationTypeName() string {
	if s.MutationType != nil && s.MutationType.Name != "" {
		return s.MutationType.Name
	}
	return "Mutation"
}

// document accepts both the raw introspection object and the response
// envelope returned by a GraphQL endpoint.
type document struct {
	Data *struct {
		Schema *Schema `json:"__schema" yaml:"__schema"`
	} `json:"data,omitempty" yaml:"data,omitempty"`
	Schema *Schema `json:"__schema,omitempty" yaml:"__schema,omitempty"`
}

func (d document) schema() (*Schema, error) {
	if d.Schema != nil {
		return d.Schema, nil
	}
	if d.Data != nil && d.Data.Schema != nil {
		return d.Data.Schema, nil
	}
	return nil, ErrMissingSchema
}

// ParseSchema decodes a JSON introspection result.
func ParseSchema(data []byte) (*Schema, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode introspection json: %w", err)
	}
	return doc.schema()
}

// LoadSchema reads an introspection result from path. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode introspection yaml %s: %w", path, err)
		}
		return doc.schema()
	default:
		schema, err := ParseSchema(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return schema, nil
	}
}

package schema

import "fmt"

// DefaultSeed is used when neither the schema nor the caller supplies a seed.
const DefaultSeed int64 = 42

// LinkType is the attribute type that marks a foreign-key style attribute.
const LinkType = "link"

const (
	DefaultOutputPath   = "./output"
	DefaultOutputFormat = "csv"
)

// SupportedFormats lists the output formats the export package can write.
var SupportedFormats = []string{"csv", "json", "sqlite", "msgpack"}

type SchemaGraph struct {
	Schemas []*SystemSchema
}

// NewSchemaGraph builds a graph and rejects duplicate schema names, since a
// link reference must resolve to exactly one schema.
func NewSchemaGraph(schemas ...*SystemSchema) (*SchemaGraph, error) {
	seen := make(map[string]string, len(schemas))
	for _, s := range schemas {
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("duplicate schema name %q (defined in %s and %s)", s.Name, prev, s.Source)
		}
		seen[s.Name] = s.Source
	}
	return &SchemaGraph{Schemas: schemas}, nil
}

func (g *SchemaGraph) Lookup(name string) (*SystemSchema, bool) {
	for _, s := range g.Schemas {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Attribute resolves a parsed link reference to its schema, entity and attribute.
func (g *SchemaGraph) Attribute(ref LinkRef) (*SystemSchema, *EntityConfig, *AttributeConfig, error) {
	s, ok := g.Lookup(ref.Schema)
	if !ok {
		return nil, nil, nil, fmt.Errorf("schema %q not found", ref.Schema)
	}
	e, ok := s.Entity(ref.Entity)
	if !ok {
		return s, nil, nil, fmt.Errorf("entity %q not found in schema %q", ref.Entity, ref.Schema)
	}
	a, ok := e.Attribute(ref.Attribute)
	if !ok {
		return s, e, nil, fmt.Errorf("attribute %q not found in entity %s.%s", ref.Attribute, ref.Schema, ref.Entity)
	}
	return s, e, a, nil
}

type SystemSchema struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Seed     *int64          `json:"seed,omitempty"`
	Output   OutputConfig    `json:"output"`
	Entities []*EntityConfig `json:"entities"`
	Source   string          `json:"-"` // file the schema was loaded from, if any
}

func (s *SystemSchema) Entity(name string) (*EntityConfig, bool) {
	for _, e := range s.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// EffectiveSeed returns override when set, then the declared seed, then DefaultSeed.
func (s *SystemSchema) EffectiveSeed(override *int64) int64 {
	if override != nil {
		return *override
	}
	if s.Seed != nil {
		return *s.Seed
	}
	return DefaultSeed
}

// TotalCount is the number of rows the schema will produce.
func (s *SystemSchema) TotalCount() int {
	total := 0
	for _, e := range s.Entities {
		total += e.Count
	}
	return total
}

type OutputConfig struct {
	Formats []string `json:"format"`
	Path    string   `json:"path"`
}

type EntityConfig struct {
	Name       string             `json:"name"`
	Count      int                `json:"count"`
	Attributes []*AttributeConfig `json:"attributes"`
}

func (e *EntityConfig) Attribute(name string) (*AttributeConfig, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Columns returns attribute names in declaration order.
func (e *EntityConfig) Columns() []string {
	cols := make([]string, len(e.Attributes))
	for i, a := range e.Attributes {
		cols[i] = a.Name
	}
	return cols
}

type AttributeConfig struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Unique      bool           `json:"unique"`
	Required    bool           `json:"required"`
	LinkTo      string         `json:"link_to,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

// IsLink reports whether values come from another attribute. Any attribute
// with link_to is a link, whatever its declared type.
func (a *AttributeConfig) IsLink() bool {
	return a.Type == LinkType || a.LinkTo != ""
}

package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type rawFile struct {
	System   rawSystem `yaml:"system"`
	Entities yaml.Node `yaml:"entities"`
}

type rawSystem struct {
	Name    string    `yaml:"name"`
	Version string    `yaml:"version"`
	Seed    *int64    `yaml:"seed"`
	Output  rawOutput `yaml:"output"`
}

type rawOutput struct {
	Format formatList `yaml:"format"`
	Path   string     `yaml:"path"`
}

// formatList accepts either `format: csv` or `format: [csv, json]`.
type formatList []string

func (f *formatList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = formatList{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*f = list
	return nil
}

type rawEntity struct {
	Count      *int      `yaml:"count"`
	Attributes yaml.Node `yaml:"attributes"`
}

type rawAttribute struct {
	Type        string         `yaml:"type"`
	Unique      *bool          `yaml:"unique"`
	Required    *bool          `yaml:"required"`
	LinkTo      *string        `yaml:"link_to"`
	Constraints map[string]any `yaml:"constraints"`
}

// Discover returns the YAML schema files in dir, sorted by name. A missing
// directory yields no files.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat schema directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema path %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func LoadFile(path string) (*SystemSchema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	s, err := Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// Parse decodes one schema document. Entity and attribute declaration order
// is preserved.
func Parse(r io.Reader) (*SystemSchema, error) {
	var raw rawFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("schema document is empty")
		}
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	s := &SystemSchema{
		Name:    raw.System.Name,
		Version: raw.System.Version,
		Seed:    raw.System.Seed,
		Output: OutputConfig{
			Formats: []string(raw.System.Output.Format),
			Path:    raw.System.Output.Path,
		},
	}
	if len(s.Output.Formats) == 0 {
		s.Output.Formats = []string{DefaultOutputFormat}
	}
	if s.Output.Path == "" {
		s.Output.Path = DefaultOutputPath
	}

	if raw.Entities.Kind == 0 {
		return s, nil
	}
	if raw.Entities.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("'entities' section must be a mapping (line %d)", raw.Entities.Line)
	}

	seen := make(map[string]int)
	for i := 0; i+1 < len(raw.Entities.Content); i += 2 {
		key := raw.Entities.Content[i]
		name := key.Value
		if line, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate entity '%s' (line %d, first declared on line %d)", name, key.Line, line)
		}
		seen[name] = key.Line
		entity, err := parseEntity(name, raw.Entities.Content[i+1])
		if err != nil {
			return nil, err
		}
		s.Entities = append(s.Entities, entity)
	}
	return s, nil
}

func parseEntity(name string, node *yaml.Node) (*EntityConfig, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("entity '%s' must be a mapping (line %d)", name, node.Line)
	}
	var raw rawEntity
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("entity '%s': %w", name, err)
	}

	entity := &EntityConfig{Name: name}
	if raw.Count != nil {
		if *raw.Count < 0 {
			return nil, fmt.Errorf("entity '%s' count must be a non-negative integer", name)
		}
		entity.Count = *raw.Count
	}

	if raw.Attributes.Kind == 0 {
		return entity, nil
	}
	if raw.Attributes.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("entity '%s' attributes must be a mapping (line %d)", name, raw.Attributes.Line)
	}

	seen := make(map[string]int)
	for i := 0; i+1 < len(raw.Attributes.Content); i += 2 {
		key := raw.Attributes.Content[i]
		attrName := key.Value
		if line, dup := seen[attrName]; dup {
			return nil, fmt.Errorf("duplicate attribute '%s.%s' (line %d, first declared on line %d)", name, attrName, key.Line, line)
		}
		seen[attrName] = key.Line
		attr, err := parseAttribute(name, attrName, raw.Attributes.Content[i+1])
		if err != nil {
			return nil, err
		}
		entity.Attributes = append(entity.Attributes, attr)
	}
	return entity, nil
}

func parseAttribute(entityName, name string, node *yaml.Node) (*AttributeConfig, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("attribute '%s.%s' must be a mapping (line %d)", entityName, name, node.Line)
	}
	var raw rawAttribute
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("attribute '%s.%s': %w", entityName, name, err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("attribute '%s.%s' must have a type", entityName, name)
	}

	attr := &AttributeConfig{
		Name:        name,
		Type:        raw.Type,
		Required:    true,
		Constraints: raw.Constraints,
	}
	if raw.Unique != nil {
		attr.Unique = *raw.Unique
	}
	if raw.Required != nil {
		attr.Required = *raw.Required
	}
	if raw.LinkTo != nil {
		attr.LinkTo = *raw.LinkTo
	}
	if attr.Constraints == nil {
		attr.Constraints = map[string]any{}
	}
	return attr, nil
}

// LoadDir discovers, loads and validates every schema in dir. Load errors
// (unreadable files, malformed YAML) are returned as err; semantic problems
// are reported in the ValidationResult.
func LoadDir(dir string) (*SchemaGraph, *ValidationResult, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, nil, err
	}

	schemas := make([]*SystemSchema, 0, len(files))
	for _, file := range files {
		s, err := LoadFile(file)
		if err != nil {
			return nil, nil, err
		}
		schemas = append(schemas, s)
	}

	result := ValidateAll(schemas)
	if !result.Valid() {
		return &SchemaGraph{Schemas: schemas}, result, nil
	}

	graph, err := NewSchemaGraph(schemas...)
	if err != nil {
		return nil, result, err
	}
	return graph, result, nil
}

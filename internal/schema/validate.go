package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ValidationIssue is one finding of schema validation. Location is a dotted
// path into the schema document, e.g. `shop.entities.orders.attributes.user_id`.
type ValidationIssue struct {
	Type       string
	Message    string
	Location   string
	Suggestion string
}

type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(typ, location, suggestion, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationIssue{
		Type:       typ,
		Message:    fmt.Sprintf(format, args...),
		Location:   location,
		Suggestion: suggestion,
	})
}

func (r *ValidationResult) addWarning(typ, location, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		Type:     typ,
		Message:  fmt.Sprintf(format, args...),
		Location: location,
	})
}

// ValidateAll checks a set of schemas jointly, so links that cross schema
// boundaries are validated against the whole set.
func ValidateAll(schemas []*SystemSchema) *ValidationResult {
	result := &ValidationResult{}

	names := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		if s.Name != "" && names[s.Name] {
			result.addError("duplicate_schema", s.Name+".system.name", "Rename one of the schemas",
				"Schema name '%s' is defined more than once", s.Name)
		}
		names[s.Name] = true
	}

	targets := make(map[string]bool)
	for _, s := range schemas {
		for _, e := range s.Entities {
			for _, a := range e.Attributes {
				targets[s.Name+"."+e.Name+"."+a.Name] = true
			}
		}
	}

	for _, s := range schemas {
		validateSchema(s, targets, result)
	}
	return result
}

func validateSchema(s *SystemSchema, targets map[string]bool, result *ValidationResult) {
	prefix := s.Name
	if prefix == "" {
		prefix = s.Source
	}

	if s.Name == "" {
		result.addError("missing_field", prefix+".system.name", "", "System name is required")
	}
	if s.Version == "" {
		result.addError("missing_field", prefix+".system.version", "", "System version is required")
	}
	for _, f := range s.Output.Formats {
		if !slices.Contains(SupportedFormats, f) {
			result.addError("unsupported_format", prefix+".system.output.format",
				"Supported formats: "+strings.Join(SupportedFormats, ", "),
				"Unsupported output format '%s'", f)
		}
	}
	if len(s.Entities) == 0 {
		result.addWarning("empty_entities", prefix+".entities", "No entities defined in schema")
	}

	for _, e := range s.Entities {
		loc := fmt.Sprintf("%s.entities.%s", prefix, e.Name)
		if e.Count <= 0 {
			result.addError("invalid_count", loc+".count", "", "Entity '%s' count must be greater than 0", e.Name)
		}
		if len(e.Attributes) == 0 {
			result.addWarning("empty_attributes", loc+".attributes", "Entity '%s' has no attributes defined", e.Name)
		}
		for _, a := range e.Attributes {
			validateAttribute(s, e, a, loc+".attributes."+a.Name, targets, result)
		}
	}
}

func validateAttribute(s *SystemSchema, e *EntityConfig, a *AttributeConfig, loc string, targets map[string]bool, result *ValidationResult) {
	if a.IsLink() && a.LinkTo == "" {
		result.addError("missing_link_target", loc+".link_to", "Add link_to: 'schema.entity.attribute'",
			"Attribute %s.%s has type 'link' but no link_to", e.Name, a.Name)
		return
	}
	if a.LinkTo == "" {
		return
	}
	if a.Type != LinkType {
		result.addWarning("link_type_mismatch", loc,
			"Attribute %s.%s has link_to with type '%s'; values are taken from the link target", e.Name, a.Name, a.Type)
	}

	ref, err := ParseLinkRef(a.LinkTo)
	if err != nil {
		result.addError("invalid_link_format", loc+".link_to", "Use format: 'schema.entity.attribute'",
			"Invalid link_to format '%s' for %s.%s", a.LinkTo, e.Name, a.Name)
		return
	}
	if !targets[ref.String()] {
		available := make([]string, 0, len(targets))
		for t := range targets {
			available = append(available, t)
		}
		sort.Strings(available)
		result.addError("broken_link", loc+".link_to", "Available targets: "+strings.Join(available, ", "),
			"Link target '%s' not found for %s.%s", a.LinkTo, e.Name, a.Name)
		return
	}
	if ref.SameEntity(s.Name, e.Name) && a.Required {
		result.addWarning("required_self_link", loc,
			"Self-referencing link %s.%s is treated as optional: the first row has no earlier row to reference", e.Name, a.Name)
	}
}

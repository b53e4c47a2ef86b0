package seeder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnresolvableLink  = errors.New("unresolvable link")
	ErrCyclicDependency  = errors.New("cyclic dependency")
	ErrUnknownType       = errors.New("unknown generator type")
	ErrInvalidConstraint = errors.New("invalid constraint")
	ErrUniqueExhausted   = errors.New("unique value space exhausted")
	ErrRequiredValue     = errors.New("required value missing")
)

// GenerationError carries the error kind and the schema path it concerns.
// Kind is one of the Err* sentinels; use errors.Is against them.
type GenerationError struct {
	Kind       error
	Schema     string
	Entity     string
	Attribute  string
	Detail     string
	Suggestion string
	Cycle      []NodeKey
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if path := e.Path(); path != "" {
		fmt.Fprintf(&b, " at %s", path)
	}
	if len(e.Cycle) > 0 {
		names := make([]string, len(e.Cycle))
		for i, k := range e.Cycle {
			names[i] = k.String()
		}
		fmt.Fprintf(&b, ": %s", strings.Join(names, " -> "))
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error {
	return e.Kind
}

// Path is the dotted schema.entity.attribute location, as far as known.
func (e *GenerationError) Path() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Schema, e.Entity, e.Attribute} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

func attrError(kind error, key NodeKey, attr, suggestion, format string, args ...any) *GenerationError {
	return &GenerationError{
		Kind:       kind,
		Schema:     key.Schema,
		Entity:     key.Entity,
		Attribute:  attr,
		Detail:     fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	}
}

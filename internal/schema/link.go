package schema

import (
	"fmt"
	"strings"
)

// LinkRef is a parsed `schema.entity.attribute` reference.
type LinkRef struct {
	Schema    string
	Entity    string
	Attribute string
}

// ParseLinkRef splits a link reference into its three case-sensitive tokens.
// Dots inside names are not supported.
func ParseLinkRef(s string) (LinkRef, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return LinkRef{}, fmt.Errorf("invalid link reference %q: expected format 'schema.entity.attribute'", s)
	}
	for _, p := range parts {
		if p == "" {
			return LinkRef{}, fmt.Errorf("invalid link reference %q: empty name", s)
		}
	}
	return LinkRef{Schema: parts[0], Entity: parts[1], Attribute: parts[2]}, nil
}

func (r LinkRef) String() string {
	return r.Schema + "." + r.Entity + "." + r.Attribute
}

// SameEntity reports whether the reference points into the given entity.
func (r LinkRef) SameEntity(schemaName, entityName string) bool {
	return r.Schema == schemaName && r.Entity == entityName
}

package seeder

import (
	"fmt"
	"slices"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
)

// DependencyGraph orders entities so that every link target is generated
// before the entities that reference it.
type DependencyGraph struct {
	nodes    []NodeKey
	deps     map[NodeKey][]NodeKey // node -> entities it links to
	order    []NodeKey
	warnings []string
}

// BuildDependencyGraph scans every link attribute of every loaded schema.
// Links may cross schema boundaries. A self-link adds no edge; it resolves
// against earlier rows of the same entity.
func BuildDependencyGraph(g *schema.SchemaGraph) (*DependencyGraph, error) {
	d := &DependencyGraph{
		deps: make(map[NodeKey][]NodeKey),
	}

	for _, s := range g.Schemas {
		for _, e := range s.Entities {
			d.nodes = append(d.nodes, NodeKey{Schema: s.Name, Entity: e.Name})
		}
	}

	for _, s := range g.Schemas {
		for _, e := range s.Entities {
			key := NodeKey{Schema: s.Name, Entity: e.Name}
			for _, a := range e.Attributes {
				if !a.IsLink() {
					continue
				}
				ref, err := resolveLinkTarget(g, key, a)
				if err != nil {
					return nil, err
				}
				target := NodeKey{Schema: ref.Schema, Entity: ref.Entity}
				if target == key {
					if a.Required {
						d.warnings = append(d.warnings, fmt.Sprintf(
							"%s.%s links to its own entity and is treated as optional", key, a.Name))
					}
					continue
				}
				if !slices.Contains(d.deps[key], target) {
					d.deps[key] = append(d.deps[key], target)
				}
			}
		}
	}

	order, err := d.buildInsertionOrder()
	if err != nil {
		return nil, err
	}
	d.order = order
	return d, nil
}

func resolveLinkTarget(g *schema.SchemaGraph, key NodeKey, a *schema.AttributeConfig) (schema.LinkRef, error) {
	if a.LinkTo == "" {
		return schema.LinkRef{}, attrError(ErrUnresolvableLink, key, a.Name,
			"add link_to: 'schema.entity.attribute'", "link attribute has no link_to")
	}
	ref, err := schema.ParseLinkRef(a.LinkTo)
	if err != nil {
		return schema.LinkRef{}, attrError(ErrUnresolvableLink, key, a.Name,
			"use format 'schema.entity.attribute'", "%v", err)
	}
	if _, _, _, err := g.Attribute(ref); err != nil {
		return schema.LinkRef{}, attrError(ErrUnresolvableLink, key, a.Name,
			"check the spelling of the link target", "link_to %q: %v", a.LinkTo, err)
	}
	return ref, nil
}

// buildInsertionOrder is a depth-first post-order walk. Nodes are visited in
// declaration order, which makes the result stable across runs.
func (d *DependencyGraph) buildInsertionOrder() ([]NodeKey, error) {
	visited := make(map[NodeKey]bool)
	temp := make(map[NodeKey]bool)
	var stack []NodeKey
	var order []NodeKey

	var visit func(NodeKey) error
	visit = func(node NodeKey) error {
		if temp[node] {
			start := slices.Index(stack, node)
			cycle := append(slices.Clone(stack[start:]), node)
			return &GenerationError{
				Kind:       ErrCyclicDependency,
				Cycle:      cycle,
				Suggestion: "remove one of the links in the cycle",
			}
		}
		if visited[node] {
			return nil
		}

		temp[node] = true
		stack = append(stack, node)
		for _, dep := range d.deps[node] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		temp[node] = false

		visited[node] = true
		order = append(order, node)
		return nil
	}

	for _, node := range d.nodes {
		if !visited[node] {
			if err := visit(node); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

func (d *DependencyGraph) Order() []NodeKey {
	return slices.Clone(d.order)
}

// Dependencies returns the entities key links to, in declaration order.
func (d *DependencyGraph) Dependencies(key NodeKey) []NodeKey {
	return slices.Clone(d.deps[key])
}

func (d *DependencyGraph) Dependents(key NodeKey) []NodeKey {
	var out []NodeKey
	for _, node := range d.nodes {
		if slices.Contains(d.deps[node], key) {
			out = append(out, node)
		}
	}
	return out
}

func (d *DependencyGraph) Warnings() []string {
	return slices.Clone(d.warnings)
}

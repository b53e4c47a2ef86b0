package seeder

import (
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
)

// SelectionPolicy decides which registered value a link picks.
type SelectionPolicy int

const (
	// PolicyUniform picks uniformly at random with replacement, so several
	// dependent rows may share one parent value.
	PolicyUniform SelectionPolicy = iota
	// PolicyRoundRobin cycles through the parent values in row order, which
	// spreads dependents evenly.
	PolicyRoundRobin
)

func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch strings.ToLower(s) {
	case "", "uniform", "random":
		return PolicyUniform, nil
	case "round_robin", "round-robin", "even":
		return PolicyRoundRobin, nil
	}
	return PolicyUniform, fmt.Errorf("unknown distribution %q (expected uniform or round_robin)", s)
}

func (p SelectionPolicy) String() string {
	if p == PolicyRoundRobin {
		return "round_robin"
	}
	return "uniform"
}

// LinkRegistry holds the rows of every entity generated so far in one run,
// plus a per-attribute index of their values.
type LinkRegistry struct {
	rows   map[NodeKey][]Row
	values map[schema.LinkRef][]any
}

func NewLinkRegistry() *LinkRegistry {
	return &LinkRegistry{
		rows:   make(map[NodeKey][]Row),
		values: make(map[schema.LinkRef][]any),
	}
}

// Register stores the completed rows of an entity. Each entity is registered
// exactly once; a second registration is a programming error and panics.
func (r *LinkRegistry) Register(key NodeKey, columns []string, rows []Row) {
	if _, ok := r.rows[key]; ok {
		panic(fmt.Sprintf("seeder: entity %s registered twice", key))
	}
	r.rows[key] = rows

	for _, col := range columns {
		ref := schema.LinkRef{Schema: key.Schema, Entity: key.Entity, Attribute: col}
		vals := make([]any, 0, len(rows))
		for _, row := range rows {
			if v := row[col]; v != nil {
				vals = append(vals, v)
			}
		}
		r.values[ref] = vals
	}
}

func (r *LinkRegistry) IsRegistered(key NodeKey) bool {
	_, ok := r.rows[key]
	return ok
}

func (r *LinkRegistry) Rows(key NodeKey) ([]Row, bool) {
	rows, ok := r.rows[key]
	return rows, ok
}

// Values returns the non-nil values of ref's attribute in row order.
func (r *LinkRegistry) Values(ref schema.LinkRef) []any {
	return r.values[ref]
}

// Resolve picks a value for a link. ordinal is the dependent row index and
// only matters for PolicyRoundRobin. Resolving an entity that has not been
// registered means the generation order was violated, and panics. The second
// result is false when the target has no values to pick from.
func (r *LinkRegistry) Resolve(ref schema.LinkRef, policy SelectionPolicy, rng *DataGenerator, ordinal int) (any, bool) {
	key := NodeKey{Schema: ref.Schema, Entity: ref.Entity}
	if !r.IsRegistered(key) {
		panic(fmt.Sprintf("seeder: link %s resolved before %s was generated", ref, key))
	}
	return pickValue(r.values[ref], policy, rng, ordinal)
}

func pickValue(vals []any, policy SelectionPolicy, rng *DataGenerator, ordinal int) (any, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	if policy == PolicyRoundRobin {
		return vals[ordinal%len(vals)], true
	}
	return vals[rng.Intn(len(vals))], true
}

// Reset drops everything registered. A registry is normally discarded after
// its run; Reset lets a caller reuse one.
func (r *LinkRegistry) Reset() {
	clear(r.rows)
	clear(r.values)
}

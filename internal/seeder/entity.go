package seeder

import (
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
)

const maxEmptyResamples = 10

type linkPlan struct {
	ref    schema.LinkRef
	self   bool
	policy SelectionPolicy
}

type attributePlan struct {
	attr        *schema.AttributeConfig
	provider    provider
	constraints Constraints
	link        *linkPlan
	required    bool
}

type entityPlan struct {
	key    NodeKey
	entity *schema.EntityConfig
	attrs  []attributePlan
}

func compileEntity(g *schema.SchemaGraph, key NodeKey, e *schema.EntityConfig) (*entityPlan, error) {
	plan := &entityPlan{key: key, entity: e}
	for _, a := range e.Attributes {
		ap, err := compileAttribute(g, key, e, a)
		if err != nil {
			return nil, err
		}
		plan.attrs = append(plan.attrs, ap)
	}
	return plan, nil
}

func compileAttribute(g *schema.SchemaGraph, key NodeKey, e *schema.EntityConfig, a *schema.AttributeConfig) (attributePlan, error) {
	ap := attributePlan{attr: a, required: a.Required}

	if a.IsLink() {
		c, err := decodeConstraints(familyLink, a.Constraints, nil)
		if err != nil {
			return ap, attrError(ErrInvalidConstraint, key, a.Name, "", "%v", err)
		}
		ref, err := resolveLinkTarget(g, key, a)
		if err != nil {
			return ap, err
		}
		ap.constraints = c
		ap.link = &linkPlan{
			ref:    ref,
			self:   ref.SameEntity(key.Schema, key.Entity),
			policy: c.(LinkDistribution).Policy,
		}
		if ap.link.self {
			ap.required = false
			return ap, nil
		}
		if a.Unique {
			_, target, _, _ := g.Attribute(ref)
			if e.Count > target.Count {
				return ap, attrError(ErrUniqueExhausted, key, a.Name,
					fmt.Sprintf("reduce count or increase %s.%s count", ref.Schema, ref.Entity),
					"only %d unique values possible from %s, %d requested", target.Count, ref, e.Count)
			}
		}
		return ap, nil
	}

	p, ok := lookupProvider(a.Type)
	if !ok {
		return ap, attrError(ErrUnknownType, key, a.Name, suggestType(a.Type),
			"type %q is not supported", a.Type)
	}
	c, err := decodeConstraints(p.family, a.Constraints, p.defaults)
	if err != nil {
		return ap, attrError(ErrInvalidConstraint, key, a.Name, "", "%v", err)
	}
	ap.provider = p
	ap.constraints = c

	if a.Unique {
		if n, ok := uniqueSpace(a.Type, p, c); ok && n < e.Count {
			suggestion := "reduce count or widen the value range"
			if _, isChoice := c.(ChoiceSet); isChoice {
				suggestion = "reduce count or widen choice set"
			}
			return ap, attrError(ErrUniqueExhausted, key, a.Name, suggestion,
				"only %d unique values possible, %d requested", n, e.Count)
		}
	}
	return ap, nil
}

// uniqueSpace is the size of an enumerable value space.
func uniqueSpace(typ string, p provider, c Constraints) (int, bool) {
	if p.space != nil {
		return len(p.space(c)), true
	}
	if typ == "datetime.date" {
		if r, ok := c.(DateRange); ok {
			return int(r.End.Sub(r.Start).Hours()/24) + 1, true
		}
	}
	return cardinality(c)
}

func suggestType(typ string) string {
	prefix := typ
	if i := strings.Index(typ, "."); i > 0 {
		prefix = typ[:i+1]
	}
	var similar []string
	for _, t := range SupportedTypes() {
		if strings.HasPrefix(t, prefix) {
			similar = append(similar, t)
		}
	}
	if len(similar) > 0 && prefix != typ {
		return "did you mean one of: " + strings.Join(similar, ", ")
	}
	return "run `seedsmith validate-schema --types` to list supported types"
}

// linkPool hands out each value at most once, for unique links.
type linkPool struct {
	vals []any
}

func (p *linkPool) add(v any) {
	if v != nil {
		p.vals = append(p.vals, v)
	}
}

func (p *linkPool) take(policy SelectionPolicy, rng *DataGenerator) (any, bool) {
	if len(p.vals) == 0 {
		return nil, false
	}
	if policy == PolicyRoundRobin {
		v := p.vals[0]
		p.vals = p.vals[1:]
		return v, true
	}
	i := rng.Intn(len(p.vals))
	v := p.vals[i]
	last := len(p.vals) - 1
	p.vals[i] = p.vals[last]
	p.vals = p.vals[:last]
	return v, true
}

// entityState is the per-entity scratch space: uniqueness sets, unique link
// pools and the values already produced for self links. It is dropped when
// the entity completes.
type entityState struct {
	trackers   map[string]*uniqueTracker
	pools      map[string]*linkPool
	selfValues map[string][]any // target attribute -> values of earlier rows
}

func (p *entityPlan) generate(gen *DataGenerator, registry *LinkRegistry) ([]Row, error) {
	count := p.entity.Count
	state := &entityState{
		trackers:   make(map[string]*uniqueTracker),
		pools:      make(map[string]*linkPool),
		selfValues: make(map[string][]any),
	}
	for _, ap := range p.attrs {
		if !ap.attr.Unique {
			continue
		}
		switch {
		case ap.link == nil:
			state.trackers[ap.attr.Name] = newUniqueTracker(count)
		case ap.link.self:
			state.pools[ap.attr.Name] = &linkPool{}
		default:
			pool := &linkPool{}
			seen := make(map[any]bool)
			for _, v := range registry.Values(ap.link.ref) {
				if k := valueKey(v); !seen[k] {
					seen[k] = true
					pool.add(v)
				}
			}
			state.pools[ap.attr.Name] = pool
		}
	}

	rows := make([]Row, 0, count)
	for i := 0; i < count; i++ {
		row := make(Row, len(p.attrs))
		for _, ap := range p.attrs {
			v, err := p.attributeValue(ap, gen, registry, state, i)
			if err != nil {
				return nil, err
			}
			if ap.required && isEmpty(v) {
				return nil, attrError(ErrRequiredValue, p.key, ap.attr.Name, "",
					"row %d produced an empty value", i)
			}
			row[ap.attr.Name] = v
		}
		rows = append(rows, row)

		for _, ap := range p.attrs {
			if ap.link == nil || !ap.link.self {
				continue
			}
			v := row[ap.link.ref.Attribute]
			if v == nil {
				continue
			}
			if pool, ok := state.pools[ap.attr.Name]; ok {
				pool.add(v)
			} else {
				state.selfValues[ap.attr.Name] = append(state.selfValues[ap.attr.Name], v)
			}
		}
	}
	return rows, nil
}

func (p *entityPlan) attributeValue(ap attributePlan, gen *DataGenerator, registry *LinkRegistry, state *entityState, ordinal int) (any, error) {
	if ap.link != nil {
		return p.linkValue(ap, gen, registry, state, ordinal)
	}

	tracker, unique := state.trackers[ap.attr.Name]
	if !unique {
		return p.generateValue(ap, gen)
	}
	v, ok, err := tracker.next(func() (any, error) {
		return p.generateValue(ap, gen)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		if space, enumerable := enumerate(ap.provider, ap.constraints); enumerable {
			skip := func(v any) bool { return ap.required && isEmpty(v) }
			if v, ok := tracker.drawRemaining(space, skip, gen); ok {
				return v, nil
			}
		}
		return nil, attrError(ErrUniqueExhausted, p.key, ap.attr.Name, "reduce count or relax the unique constraint",
			"no new unique value after %d attempts (%d of %d generated)",
			tracker.retryLimit(), tracker.seenCount(), tracker.required)
	}
	return v, nil
}

// generateValue calls the provider and, for required attributes, resamples
// empty results before falling back to a synthetic non-empty value.
func (p *entityPlan) generateValue(ap attributePlan, gen *DataGenerator) (any, error) {
	for attempt := 0; attempt < maxEmptyResamples; attempt++ {
		v, err := gen.Generate(ap.provider, ap.constraints)
		if err != nil {
			return nil, attrError(ErrInvalidConstraint, p.key, ap.attr.Name, "", "%v", err)
		}
		if !ap.required || !isEmpty(v) {
			return v, nil
		}
	}
	return gen.fallbackValue(ap.attr.Name), nil
}

func (p *entityPlan) linkValue(ap attributePlan, gen *DataGenerator, registry *LinkRegistry, state *entityState, ordinal int) (any, error) {
	lp := ap.link
	var (
		v  any
		ok bool
	)
	switch pool, unique := state.pools[ap.attr.Name]; {
	case unique:
		v, ok = pool.take(lp.policy, gen)
	case lp.self:
		v, ok = pickValue(state.selfValues[ap.attr.Name], lp.policy, gen, ordinal)
	default:
		v, ok = registry.Resolve(lp.ref, lp.policy, gen, ordinal)
	}
	if ok {
		return v, nil
	}
	if !ap.required {
		return nil, nil
	}
	if ap.attr.Unique {
		return nil, attrError(ErrUniqueExhausted, p.key, ap.attr.Name, "reduce count or add rows to the link target",
			"no unused value left in %s for row %d", lp.ref, ordinal)
	}
	return nil, attrError(ErrUnresolvableLink, p.key, ap.attr.Name, "",
		"link target %s has no values to reference", lp.ref)
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

package seeder

import (
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
)

type Options struct {
	// SeedOverride replaces every schema's seed when set.
	SeedOverride *int64
	// Formats is recorded in the metadata. Empty means each schema's own
	// output formats.
	Formats  []string
	Clock    clockwork.Clock
	Logger   *slog.Logger
	OnEntity func(EntityProgress)
}

type Seeder struct {
	opts Options
}

func New(opts Options) *Seeder {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Seeder{opts: opts}
}

// Plan is a schema graph that has been checked and compiled for generation.
// Every error a Plan can detect before producing rows has been reported by
// the time Compile returns.
type Plan struct {
	schemas  *schema.SchemaGraph
	graph    *DependencyGraph
	entities map[NodeKey]*entityPlan
}

func (p *Plan) Order() []NodeKey {
	return p.graph.Order()
}

func (p *Plan) Graph() *DependencyGraph {
	return p.graph
}

func (p *Plan) Warnings() []string {
	return p.graph.Warnings()
}

// Compile builds the dependency order, resolves every generator type,
// decodes constraints and rejects unique attributes whose value space is
// smaller than the requested count.
func (s *Seeder) Compile(g *schema.SchemaGraph) (*Plan, error) {
	graph, err := BuildDependencyGraph(g)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		schemas:  g,
		graph:    graph,
		entities: make(map[NodeKey]*entityPlan),
	}
	for _, sys := range g.Schemas {
		for _, e := range sys.Entities {
			key := NodeKey{Schema: sys.Name, Entity: e.Name}
			ep, err := compileEntity(g, key, e)
			if err != nil {
				return nil, err
			}
			plan.entities[key] = ep
		}
	}
	return plan, nil
}

// Generate produces every entity of every schema in g. It either returns a
// result for each schema, in load order, or an error and nothing else.
func (s *Seeder) Generate(g *schema.SchemaGraph) ([]*GeneratedSystem, error) {
	plan, err := s.Compile(g)
	if err != nil {
		return nil, err
	}
	return s.Run(plan)
}

// Run executes a compiled plan. Each schema gets its own random source seeded
// from its effective seed, and entities are produced in dependency order, so
// equal inputs always give equal output.
func (s *Seeder) Run(plan *Plan) ([]*GeneratedSystem, error) {
	log := s.opts.Logger
	clock := s.opts.Clock
	for _, w := range plan.Warnings() {
		log.Warn(w)
	}

	startedAt := clock.Now()
	registry := NewLinkRegistry()
	generators := make(map[string]*DataGenerator, len(plan.schemas.Schemas))
	results := make(map[string]*GeneratedSystem, len(plan.schemas.Schemas))

	for _, sys := range plan.schemas.Schemas {
		seed := sys.EffectiveSeed(s.opts.SeedOverride)
		generators[sys.Name] = NewDataGenerator(seed)

		formats := s.opts.Formats
		if len(formats) == 0 {
			formats = sys.Output.Formats
		}
		results[sys.Name] = &GeneratedSystem{
			Schema:   sys,
			Entities: make(map[string][]Row, len(sys.Entities)),
			Metadata: GenerationMetadata{
				GeneratedAt:  startedAt,
				SeedUsed:     seed,
				EntityCounts: make(map[string]int, len(sys.Entities)),
				Formats:      slices.Clone(formats),
			},
		}
		log.Debug("seeding schema", "schema", sys.Name, "seed", seed)
	}

	order := plan.Order()
	for i, key := range order {
		ep := plan.entities[key]
		t0 := clock.Now()

		rows, err := ep.generate(generators[key.Schema], registry)
		if err != nil {
			return nil, err
		}
		registry.Register(key, ep.entity.Columns(), rows)

		elapsed := clock.Since(t0)
		res := results[key.Schema]
		res.Entities[key.Entity] = rows
		res.Order = append(res.Order, key.Entity)
		res.Metadata.EntityCounts[key.Entity] = len(rows)
		res.Metadata.TotalRecords += len(rows)
		res.Metadata.Duration += elapsed

		log.Debug("generated entity", "entity", key.String(), "rows", len(rows), "elapsed", elapsed.Round(time.Microsecond))
		if s.opts.OnEntity != nil {
			s.opts.OnEntity(EntityProgress{
				Key:      key,
				Rows:     len(rows),
				Index:    i + 1,
				Total:    len(order),
				Duration: elapsed,
			})
		}
	}

	out := make([]*GeneratedSystem, 0, len(plan.schemas.Schemas))
	for _, sys := range plan.schemas.Schemas {
		res := results[sys.Name]
		log.Info("schema generated",
			"schema", sys.Name,
			"entities", len(res.Order),
			"records", res.Metadata.TotalRecords,
			"seed", res.Metadata.SeedUsed)
		out = append(out, res)
	}
	return out, nil
}

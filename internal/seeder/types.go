package seeder

import (
	"time"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
)

// NodeKey identifies one entity across all loaded schemas.
type NodeKey struct {
	Schema string
	Entity string
}

func (k NodeKey) String() string {
	return k.Schema + "." + k.Entity
}

// Row maps attribute name to generated value. Values are string, int64,
// float64, decimal.Decimal, bool, time.Time or nil.
type Row map[string]any

type GenerationMetadata struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	SeedUsed     int64          `json:"seed_used"`
	TotalRecords int            `json:"total_records"`
	EntityCounts map[string]int `json:"entity_counts"`
	Formats      []string       `json:"formats"`
	Duration     time.Duration  `json:"duration"`
}

// GeneratedSystem is the result for one schema. It is not modified after
// Generate returns.
type GeneratedSystem struct {
	Schema   *schema.SystemSchema
	Entities map[string][]Row
	Order    []string // entity names in generation order
	Metadata GenerationMetadata
}

// Columns returns the attribute names of entity in declaration order.
func (g *GeneratedSystem) Columns(entity string) []string {
	e, ok := g.Schema.Entity(entity)
	if !ok {
		return nil
	}
	return e.Columns()
}

// EntityProgress is reported to Options.OnEntity after each entity completes.
type EntityProgress struct {
	Key      NodeKey
	Rows     int
	Index    int
	Total    int
	Duration time.Duration
}

package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

const DefaultBatchSize = 100

type LoadOptions struct {
	BatchSize    int
	CreateTables bool
	// Truncate empties every target table, dependents first, before inserting.
	Truncate bool
	// TableName maps an entity to its table. Defaults to EntityTableName.
	TableName func(seeder.NodeKey) string
	OnEntity  func(key seeder.NodeKey, rows int)
}

// EntityTableName uses the bare entity name.
func EntityTableName(key seeder.NodeKey) string {
	return key.Entity
}

// SchemaTableName prefixes the entity with its schema, for loading several
// schemas that share entity names into one database.
func SchemaTableName(key seeder.NodeKey) string {
	return key.Schema + "_" + key.Entity
}

type Loader struct {
	adapter DatabaseAdapter
	opts    LoadOptions
	log     *slog.Logger
}

func NewLoader(adapter DatabaseAdapter, opts LoadOptions, logger *slog.Logger) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.TableName == nil {
		opts.TableName = EntityTableName
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{adapter: adapter, opts: opts, log: logger}
}

type loadStep struct {
	key   seeder.NodeKey
	table common.Table
	rows  []seeder.Row
}

// SystemOrder lists the entities of one generated system in generation order.
func SystemOrder(sys *seeder.GeneratedSystem) []seeder.NodeKey {
	keys := make([]seeder.NodeKey, len(sys.Order))
	for i, name := range sys.Order {
		keys[i] = seeder.NodeKey{Schema: sys.Schema.Name, Entity: name}
	}
	return keys
}

// Load inserts the generated rows in order, which must be a dependency order
// such as seeder.Plan.Order. Everything runs in one transaction that is
// rolled back on the first failure.
func (l *Loader) Load(ctx context.Context, order []seeder.NodeKey, systems []*seeder.GeneratedSystem) (int, error) {
	steps, err := l.plan(order, systems)
	if err != nil {
		return 0, err
	}

	if err := l.adapter.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	total, err := l.apply(ctx, steps)
	if err != nil {
		if rbErr := l.adapter.Rollback(ctx); rbErr != nil {
			return 0, fmt.Errorf("load failed and rollback failed: %v (original: %w)", rbErr, err)
		}
		l.log.Warn("load rolled back", "error", err)
		return 0, err
	}

	if err := l.adapter.Commit(ctx); err != nil {
		l.adapter.Rollback(ctx)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

func (l *Loader) plan(order []seeder.NodeKey, systems []*seeder.GeneratedSystem) ([]loadStep, error) {
	byName := make(map[string]*seeder.GeneratedSystem, len(systems))
	for _, sys := range systems {
		byName[sys.Schema.Name] = sys
	}

	seen := make(map[string]seeder.NodeKey)
	steps := make([]loadStep, 0, len(order))
	for _, key := range order {
		sys, ok := byName[key.Schema]
		if !ok {
			continue
		}
		entity, ok := sys.Schema.Entity(key.Entity)
		if !ok {
			return nil, fmt.Errorf("entity %s not found in generated schema", key)
		}
		if len(entity.Attributes) == 0 {
			continue
		}
		name := l.opts.TableName(key)
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("entities %s and %s both map to table %q", prev, key, name)
		}
		seen[name] = key

		rows := sys.Entities[key.Entity]
		steps = append(steps, loadStep{
			key:   key,
			table: common.TableFor(name, key.Schema, entity, rows),
			rows:  rows,
		})
	}
	return steps, nil
}

func (l *Loader) apply(ctx context.Context, steps []loadStep) (int, error) {
	if l.opts.CreateTables {
		for _, s := range steps {
			if err := l.adapter.CreateTable(ctx, s.table); err != nil {
				return 0, err
			}
		}
	}

	if l.opts.Truncate {
		for _, s := range slices.Backward(steps) {
			if err := l.adapter.TruncateTable(ctx, s.table.Name); err != nil {
				return 0, err
			}
		}
	}

	total := 0
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := l.insert(ctx, s)
		if err != nil {
			return 0, fmt.Errorf("failed to seed table %s: %w", s.table.Name, err)
		}
		total += n
		l.log.Debug("loaded entity", "entity", s.key.String(), "table", s.table.Name, "rows", n)
		if l.opts.OnEntity != nil {
			l.opts.OnEntity(s.key, n)
		}
	}
	return total, nil
}

func (l *Loader) insert(ctx context.Context, s loadStep) (int, error) {
	columns := s.table.ColumnNames()
	values := common.Values(s.table, s.rows)
	batch := common.MaxBatchRows(l.opts.BatchSize, len(columns), l.adapter.MaxPlaceholders())

	for start := 0; start < len(values); start += batch {
		end := min(start+batch, len(values))
		if err := l.adapter.InsertRows(ctx, s.table.Name, columns, values[start:end]); err != nil {
			return 0, err
		}
	}
	return len(values), nil
}

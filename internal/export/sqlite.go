package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

type sqliteWriter struct{}

func (sqliteWriter) Format() string { return "sqlite" }

// Write creates <schema>.db with one typed table per entity. An existing file
// is replaced.
func (sqliteWriter) Write(ctx context.Context, dir string, sys *seeder.GeneratedSystem) ([]string, error) {
	name := sys.Schema.Name + ".db"
	path := filepath.Join(dir, name)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove old database: %w", err)
		}
	}

	adapter, err := database.NewAdapter("sqlite")
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx, path+"?_journal_mode=DELETE"); err != nil {
		return nil, err
	}
	defer adapter.Close()

	loader := database.NewLoader(adapter, database.LoadOptions{
		BatchSize:    500,
		CreateTables: true,
	}, nil)
	if _, err := loader.Load(ctx, database.SystemOrder(sys), []*seeder.GeneratedSystem{sys}); err != nil {
		return nil, fmt.Errorf("failed to write SQLite database: %w", err)
	}
	if err := adapter.Close(); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

package database

import (
	"context"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

// DatabaseAdapter is what the loader needs from a target database. Table
// and column names are passed unquoted; each adapter quotes for its dialect.
type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Transaction control. While a transaction is open every other call runs
	// inside it.
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	CreateTable(ctx context.Context, table common.Table) error
	TruncateTable(ctx context.Context, name string) error
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error

	GetTableData(ctx context.Context, table string) ([]map[string]any, error)

	// MaxPlaceholders is the most bind parameters one statement may carry.
	MaxPlaceholders() int
	MapColumnType(kind common.Kind) string
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Adapter struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
	qb   squirrel.StatementBuilderType
}

var typeMap = map[common.Kind]string{
	common.KindText:      "TEXT",
	common.KindInteger:   "BIGINT",
	common.KindFloat:     "DOUBLE PRECISION",
	common.KindDecimal:   "NUMERIC",
	common.KindBoolean:   "BOOLEAN",
	common.KindTimestamp: "TIMESTAMP WITH TIME ZONE",
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.tx != nil {
		p.tx.Rollback(context.Background())
		p.tx = nil
	}
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) conn() execer {
	if p.tx != nil {
		return p.tx
	}
	return p.pool
}

func (p *Adapter) Begin(ctx context.Context) error {
	if p.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	p.tx = tx
	return nil
}

func (p *Adapter) Commit(ctx context.Context) error {
	if p.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := p.tx.Commit(ctx)
	p.tx = nil
	return err
}

func (p *Adapter) Rollback(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	err := p.tx.Rollback(ctx)
	p.tx = nil
	return err
}

func (p *Adapter) MaxPlaceholders() int {
	return 65535
}

func (p *Adapter) MapColumnType(kind common.Kind) string {
	if t, ok := typeMap[kind]; ok {
		return t
	}
	return "TEXT"
}

func quote(name string) string {
	return pq.QuoteIdentifier(name)
}

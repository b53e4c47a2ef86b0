package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Adapter struct {
	db   *sql.DB
	tx   *sql.Tx
	qb   squirrel.StatementBuilderType
	path string
}

var typeMap = map[common.Kind]string{
	common.KindText:      "TEXT",
	common.KindInteger:   "INTEGER",
	common.KindFloat:     "REAL",
	common.KindDecimal:   "NUMERIC",
	common.KindBoolean:   "INTEGER",
	common.KindTimestamp: "TEXT",
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	dbPath := strings.TrimPrefix(url, "sqlite://")
	s.path = dbPath
	if idx := strings.Index(s.path, "?"); idx > 0 {
		s.path = s.path[:idx]
	}
	if !strings.Contains(dbPath, "?") {
		dbPath += "?_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// a single connection keeps the open transaction visible to every call
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Path is the database file without connection parameters.
func (s *Adapter) Path() string {
	return s.path
}

func (s *Adapter) conn() execer {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Adapter) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *Adapter) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

func (s *Adapter) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// sqlite caps bind parameters at 32766 since 3.32.
func (s *Adapter) MaxPlaceholders() int {
	return 32766
}

func (s *Adapter) MapColumnType(kind common.Kind) string {
	if t, ok := typeMap[kind]; ok {
		return t
	}
	return "TEXT"
}

func quote(name string) string {
	return pq.QuoteIdentifier(name)
}

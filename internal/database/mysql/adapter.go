package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Adapter struct {
	db *sql.DB
	tx *sql.Tx
	qb squirrel.StatementBuilderType
}

var typeMap = map[common.Kind]string{
	common.KindText:      "TEXT",
	common.KindInteger:   "BIGINT",
	common.KindFloat:     "DOUBLE",
	common.KindDecimal:   "DECIMAL(20,6)",
	common.KindBoolean:   "BOOLEAN",
	common.KindTimestamp: "DATETIME(6)",
}

var sslModes = strings.NewReplacer(
	"ssl-mode=REQUIRED", "tls=skip-verify",
	"ssl-mode=DISABLED", "tls=false",
	"ssl-mode=VERIFY_CA", "tls=true",
	"ssl-mode=VERIFY_IDENTITY", "tls=true",
	"sslmode=require", "tls=skip-verify",
	"sslmode=disable", "tls=false",
	"sslmode=verify-ca", "tls=true",
	"sslmode=verify-full", "tls=true",
)

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// DSN converts a mysql:// URL into a go-sql-driver DSN. Anything else is
// returned unchanged.
func DSN(url string) string {
	if !strings.HasPrefix(url, "mysql://") {
		return url
	}
	dsn := strings.TrimPrefix(url, "mysql://")

	atIndex := strings.LastIndex(dsn, "@")
	if atIndex <= 0 {
		return dsn
	}
	credentials := dsn[:atIndex]
	remainder := dsn[atIndex+1:]

	slashIndex := strings.Index(remainder, "/")
	if slashIndex <= 0 {
		return fmt.Sprintf("%s@tcp(%s)/", credentials, remainder)
	}
	hostPort := remainder[:slashIndex]
	dbAndParams := sslModes.Replace(remainder[slashIndex+1:])
	if !strings.Contains(dbAndParams, "parseTime") {
		sep := "?"
		if strings.Contains(dbAndParams, "?") {
			sep = "&"
		}
		dbAndParams += sep + "parseTime=true"
	}
	return fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, dbAndParams)
}

func (m *Adapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open("mysql", DSN(url))
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	return nil
}

func (m *Adapter) Close() error {
	if m.tx != nil {
		m.tx.Rollback()
		m.tx = nil
	}
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) conn() execer {
	if m.tx != nil {
		return m.tx
	}
	return m.db
}

func (m *Adapter) Begin(ctx context.Context) error {
	if m.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	m.tx = tx
	return nil
}

func (m *Adapter) Commit(ctx context.Context) error {
	if m.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := m.tx.Commit()
	m.tx = nil
	return err
}

func (m *Adapter) Rollback(ctx context.Context) error {
	if m.tx == nil {
		return nil
	}
	err := m.tx.Rollback()
	m.tx = nil
	return err
}

func (m *Adapter) MaxPlaceholders() int {
	return 65535
}

func (m *Adapter) MapColumnType(kind common.Kind) string {
	if t, ok := typeMap[kind]; ok {
		return t
	}
	return "TEXT"
}

func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

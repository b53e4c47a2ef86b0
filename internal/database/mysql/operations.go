package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

func (m *Adapter) CreateTable(ctx context.Context, table common.Table) error {
	_, err := m.conn().ExecContext(ctx, m.GenerateCreateTableSQL(table))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Name, err)
	}
	return nil
}

func (m *Adapter) GenerateCreateTableSQL(table common.Table) string {
	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		def := quote(col.Name) + " " + m.MapColumnType(col.Kind)
		if col.NotNull {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		quote(table.Name), strings.Join(defs, ",\n  "))
}

// TruncateTable deletes rather than truncates: TRUNCATE commits implicitly and
// would end the load transaction.
func (m *Adapter) TruncateTable(ctx context.Context, name string) error {
	query, args, err := m.qb.Delete(quote(name)).ToSql()
	if err != nil {
		return err
	}
	if _, err := m.conn().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", name, err)
	}
	return nil
}

func (m *Adapter) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}

	insert := m.qb.Insert(quote(table)).Columns(quoted...)
	for _, row := range rows {
		insert = insert.Values(row...)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert for %s: %w", table, err)
	}
	if _, err := m.conn().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (m *Adapter) GetTableData(ctx context.Context, table string) ([]map[string]any, error) {
	query, args, err := m.qb.Select("*").From(quote(table)).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := m.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return common.ScanRows(rows)
}

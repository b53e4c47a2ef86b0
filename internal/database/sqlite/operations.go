package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

func (s *Adapter) CreateTable(ctx context.Context, table common.Table) error {
	_, err := s.conn().ExecContext(ctx, s.GenerateCreateTableSQL(table))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Name, err)
	}
	return nil
}

func (s *Adapter) GenerateCreateTableSQL(table common.Table) string {
	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		def := quote(col.Name) + " " + s.MapColumnType(col.Kind)
		if col.NotNull {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", quote(table.Name), strings.Join(defs, ",\n  "))
}

// TruncateTable empties a table. sqlite has no TRUNCATE.
func (s *Adapter) TruncateTable(ctx context.Context, name string) error {
	query, args, err := s.qb.Delete(quote(name)).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.conn().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", name, err)
	}
	return nil
}

func (s *Adapter) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}

	insert := s.qb.Insert(quote(table)).Columns(quoted...)
	for _, row := range rows {
		insert = insert.Values(row...)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert for %s: %w", table, err)
	}
	if _, err := s.conn().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (s *Adapter) GetTableData(ctx context.Context, table string) ([]map[string]any, error) {
	query, args, err := s.qb.Select("*").From(quote(table)).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return common.ScanRows(rows)
}

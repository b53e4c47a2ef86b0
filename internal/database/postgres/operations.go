package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

func (p *Adapter) CreateTable(ctx context.Context, table common.Table) error {
	if _, err := p.conn().Exec(ctx, p.GenerateCreateTableSQL(table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Name, err)
	}
	return nil
}

func (p *Adapter) GenerateCreateTableSQL(table common.Table) string {
	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		def := quote(col.Name) + " " + p.MapColumnType(col.Kind)
		if col.NotNull {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", quote(table.Name), strings.Join(defs, ",\n  "))
}

func (p *Adapter) TruncateTable(ctx context.Context, name string) error {
	if _, err := p.conn().Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", quote(name))); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", name, err)
	}
	return nil
}

func (p *Adapter) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}

	insert := p.qb.Insert(quote(table)).Columns(quoted...)
	for _, row := range rows {
		insert = insert.Values(numericArgs(row)...)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert for %s: %w", table, err)
	}
	if _, err := p.conn().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// numericArgs casts decimals explicitly. In exec mode pgx sends them as text
// parameters, which postgres will not assign to a NUMERIC column.
func numericArgs(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if d, ok := v.(decimal.Decimal); ok {
			out[i] = squirrel.Expr("CAST(? AS NUMERIC)", d.String())
			continue
		}
		out[i] = v
	}
	return out
}

func (p *Adapter) GetTableData(ctx context.Context, table string) ([]map[string]any, error) {
	query, args, err := p.qb.Select("*").From(quote(table)).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := p.conn().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var result []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = common.FormatValue(values[i])
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

package common

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

// Kind is the storage class of a generated column. Each adapter maps it to
// a dialect type.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
	KindDecimal
	KindBoolean
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindBoolean:
		return "boolean"
	case KindTimestamp:
		return "timestamp"
	}
	return "text"
}

type Column struct {
	Name    string
	Kind    Kind
	NotNull bool
}

type Table struct {
	Name    string
	Columns []Column
}

func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// KindOf classifies a generated value. nil reports false.
func KindOf(v any) (Kind, bool) {
	switch v.(type) {
	case nil:
		return KindText, false
	case int, int32, int64:
		return KindInteger, true
	case float32, float64:
		return KindFloat, true
	case decimal.Decimal:
		return KindDecimal, true
	case bool:
		return KindBoolean, true
	case time.Time:
		return KindTimestamp, true
	}
	return KindText, true
}

// TableFor derives a table definition for an entity. Column kinds come from
// the first non-nil value of each attribute, so link columns take the kind of
// the attribute they reference. Required attributes are NOT NULL except self
// links, whose first row is always empty.
func TableFor(name, schemaName string, e *schema.EntityConfig, rows []seeder.Row) Table {
	t := Table{Name: name}
	for _, a := range e.Attributes {
		col := Column{Name: a.Name, Kind: KindText, NotNull: a.Required}
		if a.IsLink() {
			if ref, err := schema.ParseLinkRef(a.LinkTo); err == nil && ref.SameEntity(schemaName, e.Name) {
				col.NotNull = false
			}
		}
		for _, r := range rows {
			if k, ok := KindOf(r[a.Name]); ok {
				col.Kind = k
				break
			}
		}
		t.Columns = append(t.Columns, col)
	}
	return t
}

// Values flattens rows into argument lists in column order.
func Values(t Table, rows []seeder.Row) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		vals := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			vals[j] = r[c.Name]
		}
		out[i] = vals
	}
	return out
}

// ScanRows reads every row of rs into maps keyed by column name.
func ScanRows(rs *sql.Rows) ([]map[string]any, error) {
	defer rs.Close()

	columns, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rs.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rs.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = FormatValue(values[i])
		}
		result = append(result, row)
	}
	return result, rs.Err()
}

// FormatValue converts driver byte slices to strings.
func FormatValue(val any) any {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}

// MaxBatchRows caps a batch so that rows*columns stays under a driver's
// placeholder limit.
func MaxBatchRows(batchSize, columns, placeholderLimit int) int {
	if columns == 0 {
		return batchSize
	}
	if limit := placeholderLimit / columns; limit < batchSize {
		return max(limit, 1)
	}
	return batchSize
}

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

type jsonWriter struct{}

func (jsonWriter) Format() string { return "json" }

// Write creates <entity>.json per entity holding an array of objects whose
// keys follow declaration order.
func (jsonWriter) Write(ctx context.Context, dir string, sys *seeder.GeneratedSystem) ([]string, error) {
	var files []string
	for _, entity := range sys.Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := marshalRows(sys.Columns(entity), sys.Entities[entity])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", entity, err)
		}
		name := entity + ".json"
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write JSON for %s: %w", entity, err)
		}
		files = append(files, name)
	}
	return files, nil
}

// orderedRow marshals as an object with keys in column order.
type orderedRow struct {
	columns []string
	row     seeder.Row
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range o.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val []byte
		if d, ok := o.row[col].(decimal.Decimal); ok {
			val = []byte(d.String())
		} else if val, err = json.Marshal(o.row[col]); err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalRows(columns []string, rows []seeder.Row) ([]byte, error) {
	out := make([]orderedRow, len(rows))
	for i, r := range rows {
		out[i] = orderedRow{columns: columns, row: r}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

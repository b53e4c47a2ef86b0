package export

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

// Writer renders one generated system in a single format. Write returns the
// paths it created, relative to dir.
type Writer interface {
	Format() string
	Write(ctx context.Context, dir string, sys *seeder.GeneratedSystem) ([]string, error)
}

var writers = map[string]func() Writer{
	"csv":     func() Writer { return csvWriter{} },
	"json":    func() Writer { return jsonWriter{} },
	"sqlite":  func() Writer { return sqliteWriter{} },
	"msgpack": func() Writer { return msgpackWriter{} },
}

func NewWriter(format string) (Writer, error) {
	if fn, ok := writers[format]; ok {
		return fn(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q (supported: %v)", format, Formats())
}

func Formats() []string {
	formats := make([]string, 0, len(writers))
	for f := range writers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// formatText renders a value for text formats. nil becomes the empty string.
func formatText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// portable converts values into plain types every encoder handles the same:
// decimals become exact float64 where lossless, otherwise strings.
func portable(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		f, exact := x.Float64()
		if exact && !math.IsInf(f, 0) {
			return f
		}
		return x.String()
	case time.Time:
		return x.UTC()
	}
	return v
}

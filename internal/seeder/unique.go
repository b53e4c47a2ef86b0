package seeder

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const minUniqueRetries = 1000

// uniqueTracker remembers the values produced for one unique attribute while
// its entity is being generated.
type uniqueTracker struct {
	seen     map[any]struct{}
	required int // total number of values the entity needs
}

func newUniqueTracker(required int) *uniqueTracker {
	return &uniqueTracker{
		seen:     make(map[any]struct{}, required),
		required: required,
	}
}

// retryLimit grows with the number of values still needed, so large entities
// get proportionally more attempts before giving up.
func (t *uniqueTracker) retryLimit() int {
	remaining := t.required - len(t.seen)
	if limit := 10 * remaining; limit > minUniqueRetries {
		return limit
	}
	return minUniqueRetries
}

// next calls gen until it yields a value not seen before. It reports false
// after retryLimit collisions.
func (t *uniqueTracker) next(gen func() (any, error)) (any, bool, error) {
	limit := t.retryLimit()
	for attempt := 0; attempt < limit; attempt++ {
		v, err := gen()
		if err != nil {
			return nil, false, err
		}
		key := valueKey(v)
		if _, dup := t.seen[key]; dup {
			continue
		}
		t.seen[key] = struct{}{}
		return v, true, nil
	}
	return nil, false, nil
}

func (t *uniqueTracker) seenCount() int {
	return len(t.seen)
}

// valueKey maps a generated value to a comparable key. Decimals and times are
// compared by their canonical string form.
func valueKey(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return "d:" + x.String()
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	case int:
		return int64(x)
	case []any, map[string]any:
		return fmt.Sprintf("%T:%v", x, x)
	}
	return v
}

const maxEnumerable = 1 << 16

// enumerate lists every value of a small value space. An exhausted tracker
// draws from what is left of it instead of failing.
func enumerate(p provider, c Constraints) ([]any, bool) {
	if p.space != nil {
		space := p.space(c)
		return space, len(space) <= maxEnumerable
	}
	switch c := c.(type) {
	case ChoiceSet:
		return c.Choices, true
	case IntRange:
		if float64(c.Max)-float64(c.Min) >= maxEnumerable {
			return nil, false
		}
		out := make([]any, 0, c.Max-c.Min+1)
		for i := int64(0); i <= c.Max-c.Min; i++ {
			out = append(out, c.Min+i)
		}
		return out, true
	}
	return nil, false
}

// drawRemaining picks uniformly among the values of space not seen yet,
// ignoring those skip rejects.
func (t *uniqueTracker) drawRemaining(space []any, skip func(any) bool, rng *DataGenerator) (any, bool) {
	var left []any
	for _, v := range space {
		if _, dup := t.seen[valueKey(v)]; dup || skip(v) {
			continue
		}
		left = append(left, v)
	}
	if len(left) == 0 {
		return nil, false
	}
	v := left[rng.Intn(len(left))]
	t.seen[valueKey(v)] = struct{}{}
	return v, true
}

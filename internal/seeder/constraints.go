package seeder

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// family groups provider types that accept the same constraint keys.
type family int

const (
	familyPlain family = iota
	familyInt
	familyDecimal
	familyDate
	familyChoice
	familyText
	familyLink
)

var familyKeys = map[family][]string{
	familyPlain:   nil,
	familyInt:     {"min", "max", "min_value", "max_value"},
	familyDecimal: {"min", "max", "min_value", "max_value", "precision"},
	familyDate:    {"start", "end", "start_date", "end_date"},
	familyChoice:  {"choices"},
	familyText:    {"length", "words"},
	familyLink:    {"distribution"},
}

// Constraints is the decoded, type-checked form of an attribute's constraints
// map. Each provider family has its own variant.
type Constraints interface {
	isConstraints()
}

type NoConstraints struct{}

type IntRange struct {
	Min, Max int64
}

type DecimalRange struct {
	Min, Max  float64
	Precision int32
}

type DateRange struct {
	Start, End time.Time
}

type ChoiceSet struct {
	Choices []any
}

// TextShape bounds generated text. Length caps the character count and Words
// sets the word count; zero means the provider default.
type TextShape struct {
	Length int
	Words  int
}

type LinkDistribution struct {
	Policy SelectionPolicy
}

func (NoConstraints) isConstraints()    {}
func (IntRange) isConstraints()         {}
func (DecimalRange) isConstraints()     {}
func (DateRange) isConstraints()        {}
func (ChoiceSet) isConstraints()        {}
func (TextShape) isConstraints()        {}
func (LinkDistribution) isConstraints() {}

var (
	defaultDateStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	defaultDateEnd   = time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// decodeConstraints turns the raw map into the variant for family f, starting
// from the provider's defaults. Keys that do not apply to f are rejected.
func decodeConstraints(f family, raw map[string]any, defaults Constraints) (Constraints, error) {
	allowed := familyKeys[f]
	var unknown []string
	for k := range raw {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		if len(allowed) == 0 {
			return nil, fmt.Errorf("constraints %s are not supported for this type", strings.Join(unknown, ", "))
		}
		return nil, fmt.Errorf("constraints %s are not supported for this type (allowed: %s)",
			strings.Join(unknown, ", "), strings.Join(allowed, ", "))
	}

	switch f {
	case familyInt:
		c, _ := defaults.(IntRange)
		if err := pickInt(raw, &c.Min, "min_value", "min"); err != nil {
			return nil, err
		}
		if err := pickInt(raw, &c.Max, "max_value", "max"); err != nil {
			return nil, err
		}
		if c.Min > c.Max {
			return nil, fmt.Errorf("min %d is greater than max %d", c.Min, c.Max)
		}
		return c, nil

	case familyDecimal:
		c, _ := defaults.(DecimalRange)
		if err := pickFloat(raw, &c.Min, "min_value", "min"); err != nil {
			return nil, err
		}
		if err := pickFloat(raw, &c.Max, "max_value", "max"); err != nil {
			return nil, err
		}
		if v, ok := raw["precision"]; ok {
			p, err := toInt64(v)
			if err != nil || p < 0 || p > 12 {
				return nil, fmt.Errorf("precision must be an integer between 0 and 12, got %v", v)
			}
			c.Precision = int32(p)
		}
		if c.Min > c.Max {
			return nil, fmt.Errorf("min %v is greater than max %v", c.Min, c.Max)
		}
		return c, nil

	case familyDate:
		c := DateRange{Start: defaultDateStart, End: defaultDateEnd}
		if err := pickTime(raw, &c.Start, "start", "start_date"); err != nil {
			return nil, err
		}
		if err := pickTime(raw, &c.End, "end", "end_date"); err != nil {
			return nil, err
		}
		if c.Start.After(c.End) {
			return nil, fmt.Errorf("start %s is after end %s", c.Start.Format(time.DateOnly), c.End.Format(time.DateOnly))
		}
		return c, nil

	case familyChoice:
		v, ok := raw["choices"]
		if !ok {
			return nil, fmt.Errorf("choice type requires a 'choices' list")
		}
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			return nil, fmt.Errorf("'choices' must be a non-empty list")
		}
		return ChoiceSet{Choices: list}, nil

	case familyText:
		c, _ := defaults.(TextShape)
		fields := []struct {
			key string
			dst *int
		}{{"length", &c.Length}, {"words", &c.Words}}
		for _, field := range fields {
			key, dst := field.key, field.dst
			v, ok := raw[key]
			if !ok {
				continue
			}
			n, err := toInt64(v)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%s must be a positive integer, got %v", key, v)
			}
			*dst = int(n)
		}
		return c, nil

	case familyLink:
		c := LinkDistribution{Policy: PolicyUniform}
		if v, ok := raw["distribution"]; ok {
			s, _ := v.(string)
			p, err := ParseSelectionPolicy(s)
			if err != nil {
				return nil, err
			}
			c.Policy = p
		}
		return c, nil
	}

	if defaults == nil {
		return NoConstraints{}, nil
	}
	return defaults, nil
}

// cardinality returns the number of distinct values the constraints allow,
// and false when the space is too large to enumerate.
func cardinality(c Constraints) (int, bool) {
	switch c := c.(type) {
	case ChoiceSet:
		seen := make(map[any]struct{}, len(c.Choices))
		for _, v := range c.Choices {
			seen[valueKey(v)] = struct{}{}
		}
		return len(seen), true
	case IntRange:
		span := float64(c.Max) - float64(c.Min) + 1
		if span > math.MaxInt32 {
			return 0, false
		}
		return int(span), true
	case DecimalRange:
		// grid points inside [Min, Max], counted exactly in decimal
		lo, hi := decimal.NewFromFloat(c.Min), decimal.NewFromFloat(c.Max)
		span := hi.Shift(c.Precision).Floor().Sub(lo.Shift(c.Precision).Ceil()).Add(decimal.NewFromInt(1))
		if span.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
			return 0, false
		}
		if span.Sign() <= 0 {
			// no grid point in range: values snap to the bounds
			if lo.Equal(hi) {
				return 1, true
			}
			return 2, true
		}
		return int(span.IntPart()), true
	}
	return 0, false
}

func pickInt(raw map[string]any, dst *int64, keys ...string) error {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			n, err := toInt64(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*dst = n
			return nil
		}
	}
	return nil
}

func pickFloat(raw map[string]any, dst *float64, keys ...string) error {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*dst = f
			return nil
		}
	}
	return nil
}

func pickTime(raw map[string]any, dst *time.Time, keys ...string) error {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			*dst = t.UTC()
			return nil
		case string:
			for _, layout := range []string{time.DateOnly, time.RFC3339, time.DateTime} {
				if parsed, err := time.Parse(layout, t); err == nil {
					*dst = parsed.UTC()
					return nil
				}
			}
			return fmt.Errorf("%s: cannot parse %q as a date", k, t)
		default:
			return fmt.Errorf("%s: expected a date, got %T", k, v)
		}
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected an integer, got %v", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

package evaluation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultWeight applies whenever a stored weight cannot be read as a finite number.
const DefaultWeight Weight = 1

// Weight is a rubric criterion multiplier. The portal stores it as text,
// so every constructor coerces and falls back to DefaultWeight instead of failing.
type Weight float64

// ParseWeight coerces numbers and numeric strings; anything else yields DefaultWeight.
func ParseWeight(v any) Weight {
	switch t := v.(type) {
	case nil:
		return DefaultWeight
	case Weight:
		return finiteOr(float64(t))
	case float64:
		return finiteOr(t)
	case float32:
		return finiteOr(float64(t))
	case int:
		return Weight(t)
	case int64:
		return Weight(t)
	case json.Number:
		return parseWeightString(t.String())
	case []byte:
		return parseWeightString(string(t))
	case string:
		return parseWeightString(t)
	default:
		return parseWeightString(fmt.Sprint(t))
	}
}

func (w Weight) Float64() float64 { return float64(w) }

func (w *Weight) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*w = DefaultWeight
			return nil
		}
		*w = parseWeightString(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*w = DefaultWeight
		return nil
	}
	*w = parseWeightString(string(b))
	return nil
}

// UnmarshalJSON defaults an absent weight to DefaultWeight.
func (c *RubricCriterion) UnmarshalJSON(b []byte) error {
	type plain RubricCriterion
	p := plain{Weight: DefaultWeight}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = RubricCriterion(p)
	return nil
}

// Scan implements sql.Scanner for TEXT, NUMERIC and REAL weight columns.
func (w *Weight) Scan(src any) error {
	*w = ParseWeight(src)
	return nil
}

func parseWeightString(s string) Weight {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultWeight
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return DefaultWeight
	}
	return finiteOr(f)
}

func finiteOr(f float64) Weight {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultWeight
	}
	return Weight(f)
}

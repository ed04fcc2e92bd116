package condition

import (
	"fmt"
	"strconv"
	"strings"
)

type valueType uint8

const (
	valueString valueType = iota
	valueInt
	valueFloat
)

// Value is a condition parameter. The raw catalog text is parsed as an
// integer, then as a float, and otherwise kept as a string.
type Value struct {
	Raw string
	typ valueType
	i   int64
	f   float64
}

// ParseValue interprets a raw catalog parameter.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Value{Raw: raw, typ: valueInt, i: i, f: float64(i)}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{Raw: raw, typ: valueFloat, f: f}
	}
	return Value{Raw: raw, typ: valueString}
}

// IsNumber reports whether the value parsed as an integer or a float.
func (v Value) IsNumber() bool {
	return v.typ == valueInt || v.typ == valueFloat
}

// Number returns the numeric value, or ErrTypeMismatch for a string.
func (v Value) Number() (float64, error) {
	if !v.IsNumber() {
		return 0, fmt.Errorf("compare against %q: %w", v.Raw, ErrTypeMismatch)
	}
	return v.f, nil
}

func (v Value) String() string {
	switch v.typ {
	case valueInt:
		return strconv.FormatInt(v.i, 10)
	case valueFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.Raw
	}
}

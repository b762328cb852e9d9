package keypager

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the scalar type of an ordering column. Cursor values are encoded
// and parsed according to the Kind declared in the matching OrderBy.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindTime
)

func (k Kind) Valid() bool {
	return k >= KindInt && k <= KindTime
}

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Time values are encoded as RFC 3339, which only has four digit years.
const (
	minTimeYear = 0
	maxTimeYear = 9999
)

// Value holds exactly one scalar of its Kind. The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
}

func Int(v int64) Value       { return Value{kind: KindInt, i: v} }
func Float(v float64) Value   { return Value{kind: KindFloat, f: v} }
func String(v string) Value   { return Value{kind: KindString, s: v} }
func Time(v time.Time) Value  { return Value{kind: KindTime, t: v} }
func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind.Valid() }

// Any returns the underlying scalar: int64, float64, string or time.Time.
// All of them are valid driver.Value types.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and scalar. Times are
// compared as instants.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	return v.Compare(o) == 0
}

// Compare orders two values of the same kind. Values of different kinds are
// ordered by kind, which only matters for malformed input.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return cmp.Compare(v.kind, o.kind)
	}

	switch v.kind {
	case KindInt:
		return cmp.Compare(v.i, o.i)
	case KindFloat:
		return cmp.Compare(v.f, o.f)
	case KindString:
		return strings.Compare(v.s, o.s)
	case KindTime:
		return v.t.Compare(o.t)
	default:
		return 0
	}
}

func (v Value) String() string {
	return v.format()
}

// format returns the canonical text form used inside cursor tokens.
func (v Value) format() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindTime:
		// RFC 3339 offsets have no seconds; UTC keeps the instant exact.
		return v.t.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// validate checks that the value survives a format/parse round trip.
func (v Value) validate() error {
	switch v.kind {
	case KindFloat:
		if math.IsNaN(v.f) {
			return fmt.Errorf("NaN is not an ordered float value")
		}
	case KindTime:
		if year := v.t.UTC().Year(); year < minTimeYear || year > maxTimeYear {
			return fmt.Errorf("time %s is out of the supported year range %d..%d", v.t.UTC(), minTimeYear, maxTimeYear)
		}
	}

	return nil
}

// parse is the inverse of Value.format for the given kind.
func (k Kind) parse(raw string) (Value, error) {
	switch k {
	case KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse int value: %w", err)
		}

		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse float value: %w", err)
		}
		if math.IsNaN(f) {
			return Value{}, fmt.Errorf("NaN is not an ordered float value")
		}

		return Float(f), nil
	case KindString:
		return String(raw), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse time value: %w", err)
		}

		return Time(t), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", k)
	}
}

// ValueOf converts a getter result into a Value of the requested kind.
// Any integer type is accepted for KindInt, any float type for KindFloat,
// string and []byte for KindString, time.Time (or *time.Time) for KindTime.
// Pointers are dereferenced; a nil pointer is an error because ordering
// columns must not be NULL.
func ValueOf(kind Kind, x any) (Value, error) {
	if v, ok := x.(Value); ok {
		if v.kind != kind {
			return Value{}, fmt.Errorf("value kind %s does not match expected %s", v.kind, kind)
		}

		return v, nil
	}

	switch kind {
	case KindInt:
		switch n := x.(type) {
		case int:
			return Int(int64(n)), nil
		case int8:
			return Int(int64(n)), nil
		case int16:
			return Int(int64(n)), nil
		case int32:
			return Int(int64(n)), nil
		case int64:
			return Int(n), nil
		case uint:
			return uintValue(uint64(n))
		case uint8:
			return Int(int64(n)), nil
		case uint16:
			return Int(int64(n)), nil
		case uint32:
			return Int(int64(n)), nil
		case uint64:
			return uintValue(n)
		case *int64:
			if n != nil {
				return Int(*n), nil
			}
		case *int:
			if n != nil {
				return Int(int64(*n)), nil
			}
		case *uint:
			if n != nil {
				return uintValue(uint64(*n))
			}
		}
	case KindFloat:
		switch n := x.(type) {
		case float32:
			return Float(float64(n)), nil
		case float64:
			return Float(n), nil
		case *float64:
			if n != nil {
				return Float(*n), nil
			}
		}
	case KindString:
		switch s := x.(type) {
		case string:
			return String(s), nil
		case []byte:
			return String(string(s)), nil
		case *string:
			if s != nil {
				return String(*s), nil
			}
		case fmt.Stringer:
			return String(s.String()), nil
		}
	case KindTime:
		switch t := x.(type) {
		case time.Time:
			return Time(t), nil
		case *time.Time:
			if t != nil {
				return Time(*t), nil
			}
		}
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", kind)
	}

	return Value{}, fmt.Errorf("cannot use %T as %s value", x, kind)
}

func uintValue(n uint64) (Value, error) {
	if n > math.MaxInt64 {
		return Value{}, fmt.Errorf("unsigned value %d overflows int64", n)
	}

	return Int(int64(n)), nil
}

// Position is the ordered tuple of ordering column values of a single row.
type Position []Value

func (p Position) Equal(o Position) bool {
	if len(p) != len(o) {
		return false
	}

	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}

	return true
}

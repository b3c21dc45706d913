package decode

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind tags the target type of a schema field.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindFloat
	KindBool
	KindTimestamp
	KindEnum
	KindRecord
	KindList
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindTimestamp:
		return "timestamp"
	case KindEnum:
		return "enum"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindAny:
		return "any"
	default:
		return "unknown"
	}
}

// Type converts a structured JSON value into a Go value of type V.
// path is the location of raw within the document and is only used for
// error reporting.
type Type[V any] interface {
	Kind() Kind
	Coerce(raw interface{}, path string) (V, error)
}

// Primitive types.
var (
	String    Type[string]      = stringType{}
	Int       Type[int]         = intType{}
	Float     Type[float64]     = floatType{}
	Bool      Type[bool]        = boolType{}
	Timestamp Type[time.Time]   = timestampType{}
	Any       Type[interface{}] = anyType{}
)

type stringType struct{}

func (stringType) Kind() Kind { return KindString }

func (stringType) Coerce(raw interface{}, path string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", typeMismatch(path, "string", raw)
	}
	return s, nil
}

type intType struct{}

func (intType) Kind() Kind { return KindInt }

func (intType) Coerce(raw interface{}, path string) (int, error) {
	switch n := raw.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			if i >= math.MinInt && i <= math.MaxInt {
				return int(i), nil
			}
			break
		}
		if f, err := n.Float64(); err == nil && wholeInt(f) {
			return int(f), nil
		}
	case float64:
		if wholeInt(n) {
			return int(n), nil
		}
	case int:
		return n, nil
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n), nil
		}
	}
	return 0, typeMismatch(path, "integer", raw)
}

// wholeInt reports whether f is integral and fits in an int. The upper
// bound is exclusive because float64(math.MaxInt) rounds up to 2^63.
func wholeInt(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt && f < math.MaxInt
}

type floatType struct{}

func (floatType) Kind() Kind { return KindFloat }

func (floatType) Coerce(raw interface{}, path string) (float64, error) {
	f, ok := toNumber(raw)
	if !ok {
		return 0, typeMismatch(path, "number", raw)
	}
	return f, nil
}

func toNumber(raw interface{}) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

type boolType struct{}

func (boolType) Kind() Kind { return KindBool }

func (boolType) Coerce(raw interface{}, path string) (bool, error) {
	b, ok := raw.(bool)
	if !ok {
		return false, typeMismatch(path, "boolean", raw)
	}
	return b, nil
}

// timestampLayouts covers the ISO-8601 shapes the API emits: with or
// without fractional seconds, with "Z", "+01:00" or "+0100" offsets, or
// with no offset at all (read as UTC).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

type timestampType struct{}

func (timestampType) Kind() Kind { return KindTimestamp }

func (timestampType) Coerce(raw interface{}, path string) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, typeMismatch(path, "ISO-8601 string", raw)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, &DecodeError{Kind: BadTimestamp, Field: path, Value: s, Err: err}
	}
	return t, nil
}

// ParseTimestamp parses an ISO-8601 instant. Text without an offset is
// interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as ISO-8601", s)
}

type anyType struct{}

func (anyType) Kind() Kind { return KindAny }

func (anyType) Coerce(raw interface{}, _ string) (interface{}, error) {
	return raw, nil
}

// Enum returns a type accepting exactly the given values. Matching is
// case-sensitive; anything else fails with UnknownEnumValue.
func Enum[E ~string](name string, values ...E) Type[E] {
	set := make(map[string]E, len(values))
	for _, v := range values {
		set[string(v)] = v
	}
	return enumType[E]{name: name, values: set, order: values}
}

type enumType[E ~string] struct {
	name   string
	values map[string]E
	order  []E
}

func (enumType[E]) Kind() Kind { return KindEnum }

func (t enumType[E]) Coerce(raw interface{}, path string) (E, error) {
	s, ok := raw.(string)
	if !ok {
		var zero E
		return zero, typeMismatch(path, t.name+" string", raw)
	}
	v, ok := t.values[s]
	if !ok {
		var zero E
		return zero, &DecodeError{
			Kind:  UnknownEnumValue,
			Field: path,
			Value: s,
			Err:   fmt.Errorf("%s must be one of %v", t.name, t.order),
		}
	}
	return v, nil
}

// Record returns a type decoding a nested object with the given schema.
func Record[R any](schema *Schema[R]) Type[R] {
	return recordType[R]{schema: schema}
}

type recordType[R any] struct {
	schema *Schema[R]
}

func (recordType[R]) Kind() Kind { return KindRecord }

func (t recordType[R]) Coerce(raw interface{}, path string) (R, error) {
	return t.schema.decodeObject(raw, path)
}

// List returns a type decoding a JSON array element by element, keeping
// source order.
func List[V any](elem Type[V]) Type[[]V] {
	return listType[V]{elem: elem}
}

type listType[V any] struct {
	elem Type[V]
}

func (listType[V]) Kind() Kind { return KindList }

func (t listType[V]) Coerce(raw interface{}, path string) ([]V, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, typeMismatch(path, "array", raw)
	}
	out := make([]V, 0, len(items))
	for i, item := range items {
		v, err := t.elem.Coerce(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Ptr wraps a type so that optional values can be told apart from zero
// values. JSON null decodes to nil.
func Ptr[V any](elem Type[V]) Type[*V] {
	return ptrType[V]{elem: elem}
}

type ptrType[V any] struct {
	elem Type[V]
}

func (t ptrType[V]) Kind() Kind { return t.elem.Kind() }

func (t ptrType[V]) Coerce(raw interface{}, path string) (*V, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := t.elem.Coerce(raw, path)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

package decode

import (
	"fmt"
)

// ErrorKind classifies why a payload could not be decoded.
type ErrorKind int

const (
	// MalformedJSON means the raw text was not valid JSON.
	MalformedJSON ErrorKind = iota + 1
	// TypeMismatch means the JSON type of a value is incompatible with the field type.
	TypeMismatch
	// BadTimestamp means a timestamp field held unparsable text.
	BadTimestamp
	// UnknownEnumValue means an enum field held a value outside its declared set.
	UnknownEnumValue
	// MissingField means a required field (or path segment) was absent.
	MissingField
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedJSON:
		return "malformed json"
	case TypeMismatch:
		return "type mismatch"
	case BadTimestamp:
		return "bad timestamp"
	case UnknownEnumValue:
		return "unknown enum value"
	case MissingField:
		return "missing field"
	default:
		return "unknown"
	}
}

// DecodeError reports a failure to turn a raw payload into a typed record.
// Field is the dotted path of the offending value, e.g. "data[2].trend".
type DecodeError struct {
	Kind  ErrorKind
	Field string
	Value interface{}
	Err   error
}

func (e *DecodeError) Error() string {
	msg := "decode: " + e.Kind.String()
	if e.Field != "" {
		msg += fmt.Sprintf(" at %q", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", summarize(e.Value))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind, so errors.Is(err, decode.ErrUnknownEnumValue)
// holds for any enum failure regardless of field.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Field == "" && t.Value == nil && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrMalformedJSON    = &DecodeError{Kind: MalformedJSON}
	ErrTypeMismatch     = &DecodeError{Kind: TypeMismatch}
	ErrBadTimestamp     = &DecodeError{Kind: BadTimestamp}
	ErrUnknownEnumValue = &DecodeError{Kind: UnknownEnumValue}
	ErrMissingField     = &DecodeError{Kind: MissingField}
)

func typeMismatch(path, want string, raw interface{}) error {
	return &DecodeError{
		Kind:  TypeMismatch,
		Field: path,
		Value: raw,
		Err:   fmt.Errorf("expected %s, got %s", want, jsonTypeName(raw)),
	}
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		if _, ok := toNumber(v); ok {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}

// summarize keeps error messages short when the offending value is a large
// object or array.
func summarize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return fmt.Sprintf("object with %d keys", len(t))
	case []interface{}:
		return fmt.Sprintf("array of %d", len(t))
	case string:
		if len(t) > 64 {
			return t[:64] + "..."
		}
	}
	return v
}

package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Parse turns raw into a structured JSON value. Text ([]byte, string,
// json.RawMessage) is parsed with numbers kept as json.Number; anything
// else is assumed to already be structured and is returned unchanged.
func Parse(raw interface{}) (interface{}, error) {
	var data []byte
	switch r := raw.(type) {
	case []byte:
		data = r
	case json.RawMessage:
		data = r
	case string:
		data = []byte(r)
	default:
		return raw, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{Kind: MalformedJSON, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Kind: MalformedJSON, Err: fmt.Errorf("trailing data after JSON value")}
	}
	return v, nil
}

// Decode parses raw if it is text and decodes the document root with schema.
func Decode[T any](raw interface{}, schema *Schema[T]) (T, error) {
	return DecodeAt(raw, schema)
}

// DecodeAt decodes the value found at path inside raw. Path segments are
// object keys (string) or array indexes (int):
//
//	DecodeAt(body, models.SwimmingPoolSchema, "data", 0, "swimming_pool")
//
// Object keys on the path are matched after normalization, like field names.
func DecodeAt[T any](raw interface{}, schema *Schema[T], path ...interface{}) (T, error) {
	v, err := Parse(raw)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err = Select(v, path...)
	if err != nil {
		var zero T
		return zero, err
	}
	return schema.decodeObject(v, pathString(path))
}

// Value decodes an already structured value with schema.
func Value[T any](v interface{}, schema *Schema[T]) (T, error) {
	return schema.decodeObject(v, "")
}

// Select walks path inside an already structured value.
func Select(v interface{}, path ...interface{}) (interface{}, error) {
	cur := v
	for i, seg := range path {
		at := pathString(path[:i+1])
		switch s := seg.(type) {
		case string:
			obj, ok := cur.(map[string]interface{})
			if !ok {
				return nil, typeMismatch(pathString(path[:i]), "object", cur)
			}
			next, ok := lookup(obj, s)
			if !ok {
				return nil, &DecodeError{Kind: MissingField, Field: at}
			}
			cur = next
		case int:
			arr, ok := cur.([]interface{})
			if !ok {
				return nil, typeMismatch(pathString(path[:i]), "array", cur)
			}
			if s < 0 || s >= len(arr) {
				return nil, &DecodeError{
					Kind:  MissingField,
					Field: at,
					Err:   fmt.Errorf("index %d out of range (len %d)", s, len(arr)),
				}
			}
			cur = arr[s]
		default:
			return nil, &DecodeError{
				Kind:  TypeMismatch,
				Field: at,
				Value: seg,
				Err:   fmt.Errorf("path segment has unsupported type %T", seg),
			}
		}
	}
	return cur, nil
}

// Items returns the array found at path.
func Items(v interface{}, path ...interface{}) ([]interface{}, error) {
	sel, err := Select(v, path...)
	if err != nil {
		return nil, err
	}
	arr, ok := sel.([]interface{})
	if !ok {
		return nil, typeMismatch(pathString(path), "array", sel)
	}
	return arr, nil
}

// lookup resolves key like decodeObject does: among the keys that
// normalize to the same name, the last in sorted order wins.
func lookup(obj map[string]interface{}, key string) (interface{}, bool) {
	want := Normalize(key)
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if Normalize(k) == want {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return obj[keys[len(keys)-1]], true
}

func pathString(path []interface{}) string {
	var buf bytes.Buffer
	for _, seg := range path {
		switch s := seg.(type) {
		case int:
			buf.WriteString("[" + strconv.Itoa(s) + "]")
		default:
			if buf.Len() > 0 {
				buf.WriteByte('.')
			}
			fmt.Fprint(&buf, s)
		}
	}
	return buf.String()
}

package decode

import (
	"fmt"
	"sort"
)

// Field describes one field of record type T: its canonical name, its
// target type and what happens when the raw object does not carry it.
// Fields are built with Required, Optional or Default.
type Field[T any] struct {
	name     string
	kind     Kind
	required bool
	assign   func(dst *T, raw interface{}, path string) error
	fallback func(dst *T)
}

// Name returns the canonical field name.
func (f Field[T]) Name() string { return f.name }

// Kind returns the target type tag.
func (f Field[T]) Kind() Kind { return f.kind }

// IsRequired reports whether decoding fails when the field is absent.
func (f Field[T]) IsRequired() bool { return f.required }

// Required declares a field that must be present in the raw object.
func Required[T, V any](name string, typ Type[V], ref func(*T) *V) Field[T] {
	f := bind(name, typ, ref)
	f.required = true
	return f
}

// Optional declares a field that keeps its zero value when absent.
func Optional[T, V any](name string, typ Type[V], ref func(*T) *V) Field[T] {
	return bind(name, typ, ref)
}

// Default declares a field that takes def when absent.
func Default[T, V any](name string, typ Type[V], ref func(*T) *V, def V) Field[T] {
	f := bind(name, typ, ref)
	f.fallback = func(dst *T) { *ref(dst) = def }
	return f
}

func bind[T, V any](name string, typ Type[V], ref func(*T) *V) Field[T] {
	return Field[T]{
		name: Normalize(name),
		kind: typ.Kind(),
		assign: func(dst *T, raw interface{}, path string) error {
			if raw == nil {
				var zero V
				*ref(dst) = zero
				return nil
			}
			v, err := typ.Coerce(raw, path)
			if err != nil {
				return err
			}
			*ref(dst) = v
			return nil
		},
	}
}

// Schema is the static description of record type T.
type Schema[T any] struct {
	name   string
	fields []Field[T]
	index  map[string]int
}

// NewSchema builds a schema from a field table. Field names are normalized;
// declaring the same canonical name twice is a programming error and
// panics.
func NewSchema[T any](name string, fields ...Field[T]) *Schema[T] {
	s := &Schema[T]{
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := s.index[f.name]; dup {
			panic(fmt.Sprintf("decode: schema %s declares field %q twice", name, f.name))
		}
		s.index[f.name] = i
	}
	return s
}

// Name returns the record name the schema describes.
func (s *Schema[T]) Name() string { return s.name }

// Fields returns the field table in declaration order.
func (s *Schema[T]) Fields() []Field[T] {
	out := make([]Field[T], len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema[T]) decodeObject(raw interface{}, path string) (T, error) {
	var out T

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return out, typeMismatch(displayPath(path, s.name), s.name+" object", raw)
	}

	// Sorted so that colliding spellings of one key resolve the same way
	// on every run.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make([]bool, len(s.fields))
	for _, key := range keys {
		i, ok := s.index[Normalize(key)]
		if !ok {
			continue
		}
		f := s.fields[i]
		if err := f.assign(&out, obj[key], join(path, f.name)); err != nil {
			return out, err
		}
		seen[i] = true
	}

	for i, f := range s.fields {
		if seen[i] {
			continue
		}
		switch {
		case f.fallback != nil:
			f.fallback(&out)
		case f.required:
			return out, &DecodeError{
				Kind:  MissingField,
				Field: join(path, f.name),
				Err:   fmt.Errorf("%s requires %s", s.name, f.name),
			}
		}
	}
	return out, nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func displayPath(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

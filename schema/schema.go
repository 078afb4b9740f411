// Package schema declares the typed input/output boundaries of agents and
// validates data maps against them. Validation is shallow-structural: array
// element types are checked recursively, map values are accepted without
// recursing, and unknown extra fields are permitted for forward compatibility.
package schema

import (
	"fmt"
	"reflect"

	"github.com/BaSui01/pipeflow/types"
)

// FieldType enumerates the types a schema field may declare.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeBoolean FieldType = "boolean"
	TypeMap     FieldType = "map"
	TypeArray   FieldType = "array"
	TypeAny     FieldType = "any"
)

// Field describes one named, typed schema entry.
type Field struct {
	Name        string
	Type        FieldType
	Elem        FieldType // element type for TypeArray, TypeAny when unset
	Required    bool
	Default     any
	Description string
}

// String declares a string field.
func String(name string) Field { return Field{Name: name, Type: TypeString} }

// Integer declares an integer field.
func Integer(name string) Field { return Field{Name: name, Type: TypeInteger} }

// Float declares a float field.
func Float(name string) Field { return Field{Name: name, Type: TypeFloat} }

// Boolean declares a boolean field.
func Boolean(name string) Field { return Field{Name: name, Type: TypeBoolean} }

// Map declares an associative field. Values are accepted without recursing.
func Map(name string) Field { return Field{Name: name, Type: TypeMap} }

// Array declares an array field whose elements must match elem.
func Array(name string, elem FieldType) Field {
	return Field{Name: name, Type: TypeArray, Elem: elem}
}

// Any declares a field that accepts every value.
func Any(name string) Field { return Field{Name: name, Type: TypeAny} }

// WithRequired marks the field as required. A required field must not carry
// a default.
func (f Field) WithRequired() Field {
	f.Required = true
	return f
}

// WithDefault sets the value merged in when the field is absent.
func (f Field) WithDefault(v any) Field {
	f.Default = v
	return f
}

// WithDescription sets the human-readable description, carried into the
// structured-output schema that ToJSONSchema produces.
func (f Field) WithDescription(desc string) Field {
	f.Description = desc
	return f
}

// Schema is an ordered, immutable list of field descriptors.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema from the given fields. Field names must be unique and
// a required field must not declare a default.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)

	for i, f := range s.fields {
		if f.Name == "" {
			return nil, types.NewError(types.ErrInvalidAgentDef, "schema field with empty name")
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, types.NewErrorf(types.ErrInvalidAgentDef, "duplicate schema field %q", f.Name)
		}
		if f.Required && f.Default != nil {
			return nil, types.NewErrorf(types.ErrInvalidAgentDef, "required field %q must not declare a default", f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

// MustNew is like New but panics on an invalid declaration. Intended for
// package-level agent definitions.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the field descriptors in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Validate checks data against the schema and reports the first violation:
// missing required field, wrong type, or array-element type mismatch.
func (s *Schema) Validate(data types.Data) error {
	for _, f := range s.fields {
		value, present := data[f.Name]
		if !present {
			if f.Required {
				return types.NewErrorf(types.ErrValidation, "missing required field %q", f.Name)
			}
			continue
		}
		if err := checkValue(f.Name, f.Type, f.Elem, value); err != nil {
			return err
		}
	}
	return nil
}

// MergeDefaults returns a copy of data with every absent optional field set
// to its declared default. Applied before an agent's handler runs.
func (s *Schema) MergeDefaults(data types.Data) types.Data {
	out := data.Clone()
	for _, f := range s.fields {
		if f.Default == nil {
			continue
		}
		if _, present := out[f.Name]; !present {
			out[f.Name] = f.Default
		}
	}
	return out
}

func checkValue(path string, ft FieldType, elem FieldType, value any) error {
	switch ft {
	case TypeAny:
		return nil
	case TypeString:
		if _, ok := value.(string); !ok {
			return typeMismatch(path, ft, value)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return typeMismatch(path, ft, value)
		}
	case TypeInteger:
		if !isInteger(value) {
			return typeMismatch(path, ft, value)
		}
	case TypeFloat:
		if !isNumeric(value) {
			return typeMismatch(path, ft, value)
		}
	case TypeMap:
		if !isAssociative(value) {
			return typeMismatch(path, ft, value)
		}
	case TypeArray:
		items, ok := asSlice(value)
		if !ok {
			return typeMismatch(path, ft, value)
		}
		et := elem
		if et == "" {
			et = TypeAny
		}
		for i, item := range items {
			if err := checkValue(fmt.Sprintf("%s[%d]", path, i), et, "", item); err != nil {
				return err
			}
		}
	default:
		return types.NewErrorf(types.ErrInvalidAgentDef, "field %q declares unknown type %q", path, ft)
	}
	return nil
}

func typeMismatch(path string, ft FieldType, value any) error {
	return types.NewErrorf(types.ErrValidation, "field %q expects %s, got %T", path, ft, value)
}

// isInteger accepts native integer kinds plus the float64 an untyped JSON
// decode produces, as long as it carries no fractional part.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	case float32:
		return v == float32(int32(v))
	default:
		return false
	}
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func isAssociative(value any) bool {
	switch value.(type) {
	case types.Data, map[string]any:
		return true
	}
	return reflect.ValueOf(value).Kind() == reflect.Map
}

func asSlice(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

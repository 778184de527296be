package validation

import (
	"reflect"
)

// Kind names the JSON shape of a described field.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindList    Kind = "list"
	KindObject  Kind = "object"
)

// FieldSpec describes one field of a request schema.
type FieldSpec struct {
	Path        string   `json:"path"`
	Kind        Kind     `json:"kind"`
	Items       Kind     `json:"items,omitempty"`
	Required    bool     `json:"required"`
	MinItems    int      `json:"min_items,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Description string   `json:"description,omitempty"`
	Example     string   `json:"example,omitempty"`
}

// Describe flattens a struct type into field specs in declaration order.
// Nested structs produce an object entry followed by their own fields using
// dotted JSON paths. An object is required when any of its fields is.
func Describe(t reflect.Type) []FieldSpec {
	var specs []FieldSpec
	describeInto(&specs, "", t)
	return specs
}

func describeInto(specs *[]FieldSpec, prefix string, t reflect.Type) {
	for _, info := range ParseValidationTags(t) {
		path := info.JSONName
		if prefix != "" {
			path = prefix + "." + path
		}

		spec := FieldSpec{
			Path:        path,
			Required:    info.Required,
			Description: info.Description,
			Example:     info.Example,
		}

		ft := info.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		switch ft.Kind() {
		case reflect.Struct:
			spec.Kind = KindObject
			*specs = append(*specs, spec)
			idx := len(*specs) - 1
			describeInto(specs, path, ft)
			for _, child := range (*specs)[idx+1:] {
				if child.Required {
					(*specs)[idx].Required = true
					break
				}
			}
			continue
		case reflect.Slice, reflect.Array:
			spec.Kind = KindList
			spec.Items = scalarKind(ft.Elem())
			if values, ok := info.ElemEnum(); ok {
				spec.Items = KindEnum
				spec.Enum = values
			}
			if minItems, ok := info.Min(); ok {
				spec.MinItems = minItems
			}
		default:
			spec.Kind = scalarKind(ft)
			if values, ok := info.Enum(); ok {
				spec.Kind = KindEnum
				spec.Enum = values
			}
		}

		*specs = append(*specs, spec)
	}
}

func scalarKind(t reflect.Type) Kind {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger
	case reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Struct, reflect.Map:
		return KindObject
	default:
		return KindString
	}
}

package openapi

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	rawJSONType = reflect.TypeOf(json.RawMessage{})
)

// GenerateSchema creates an OpenAPI schema from a Go value using reflection.
// Fields tagged omitempty, and pointer fields, are optional; everything else
// is listed as required.
func GenerateSchema(v interface{}) *Schema {
	if v == nil {
		return nil
	}
	return typeToSchema(reflect.TypeOf(v), map[reflect.Type]bool{})
}

func typeToSchema(t reflect.Type, seen map[reflect.Type]bool) *Schema {
	nullable := false
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
		nullable = true
	}

	schema := baseSchema(t, seen)
	if nullable {
		schema.Nullable = true
	}
	return schema
}

func baseSchema(t reflect.Type, seen map[reflect.Type]bool) *Schema {
	switch t {
	case timeType:
		return &Schema{Type: "string", Format: "date-time"}
	case uuidType:
		return &Schema{Type: "string", Format: "uuid"}
	case rawJSONType:
		return &Schema{}
	}

	switch t.Kind() {
	case reflect.Struct:
		if seen[t] {
			return &Schema{Type: "object"}
		}
		seen[t] = true
		defer delete(seen, t)

		schema := &Schema{
			Type:       "object",
			Properties: make(map[string]*Schema),
		}
		addFields(schema, t, seen)
		return schema

	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: "string", Format: "byte"}
		}
		return &Schema{
			Type:  "array",
			Items: typeToSchema(t.Elem(), seen),
		}

	case reflect.Map:
		return &Schema{
			Type:                 "object",
			AdditionalProperties: typeToSchema(t.Elem(), seen),
		}

	case reflect.Interface:
		// any JSON value
		return &Schema{}

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return &Schema{Type: "integer", Format: "int32"}

	case reflect.Int64, reflect.Uint64:
		return &Schema{Type: "integer", Format: "int64"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	default:
		return &Schema{Type: "string"}
	}
}

func addFields(schema *Schema, t reflect.Type, seen map[reflect.Type]bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(jsonTag, ",")

		// untagged embedded structs are flattened like encoding/json does,
		// even when the embedded type itself is unexported
		if field.Anonymous && name == "" {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				addFields(schema, ft, seen)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}

		if name == "" {
			name = field.Name
		}

		prop := typeToSchema(field.Type, seen)
		if desc := field.Tag.Get("description"); desc != "" {
			prop.Description = desc
		}
		schema.Properties[name] = prop

		optional := strings.Contains(opts, "omitempty") || field.Type.Kind() == reflect.Ptr
		if !optional {
			schema.Required = append(schema.Required, name)
		}
	}
}

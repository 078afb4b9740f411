package schema

import "github.com/BaSui01/pipeflow/types"

// ToJSONSchema translates the schema into the structured-output shape the
// LLM transport consumes. Unknown field types are refused here; agent
// Build calls it, so they are refused at agent-load time rather than at
// routing time.
func (s *Schema) ToJSONSchema() (*types.JSONSchema, error) {
	obj := types.NewObjectSchema()
	for _, f := range s.fields {
		prop, err := fieldToJSONSchema(f)
		if err != nil {
			return nil, err
		}
		obj.AddProperty(f.Name, prop)
		if f.Required {
			obj.AddRequired(f.Name)
		}
	}
	return obj, nil
}

func fieldToJSONSchema(f Field) (*types.JSONSchema, error) {
	prop, err := typeToJSONSchema(f.Name, f.Type, f.Elem)
	if err != nil {
		return nil, err
	}
	if f.Description != "" {
		prop.Description = f.Description
	}
	if f.Default != nil {
		prop.Default = f.Default
	}
	return prop, nil
}

func typeToJSONSchema(name string, ft FieldType, elem FieldType) (*types.JSONSchema, error) {
	switch ft {
	case TypeString:
		return types.NewStringSchema(), nil
	case TypeInteger:
		return types.NewIntegerSchema(), nil
	case TypeFloat:
		return types.NewNumberSchema(), nil
	case TypeBoolean:
		return types.NewBooleanSchema(), nil
	case TypeMap:
		return &types.JSONSchema{Type: types.SchemaTypeObject}, nil
	case TypeArray:
		et := elem
		if et == "" {
			et = TypeAny
		}
		items, err := typeToJSONSchema(name, et, "")
		if err != nil {
			return nil, err
		}
		return types.NewArraySchema(items), nil
	case TypeAny:
		// An empty schema accepts every value.
		return &types.JSONSchema{}, nil
	default:
		return nil, types.NewErrorf(types.ErrInvalidAgentDef, "field %q declares unknown type %q", name, ft)
	}
}

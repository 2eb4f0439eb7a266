package tool

import (
	"fmt"
	"slices"
)

// PropertySchema describes a single tool parameter (JSON Schema compatible).
type PropertySchema struct {
	Type        string          `json:"type"` // "string", "number", "boolean", "array", "object"
	Description string          `json:"description"`
	Enum        []string        `json:"enum,omitempty"`
	Default     *string         `json:"default,omitempty"`
	Items       *PropertySchema `json:"items,omitempty"` // element schema for array types
}

// Property is a named parameter. InputSchema keeps properties in declaration order.
type Property struct {
	Name   string
	Schema PropertySchema
}

// Prop declares a parameter.
func Prop(name, typ, description string) Property {
	return Property{Name: name, Schema: PropertySchema{Type: typ, Description: description}}
}

// WithEnum restricts the parameter to the given values.
func (p Property) WithEnum(values ...string) Property {
	p.Schema.Enum = values
	return p
}

// WithDefault sets the value used when the parameter is absent.
func (p Property) WithDefault(value string) Property {
	p.Schema.Default = &value
	return p
}

// WithItems sets the element schema of an array parameter.
func (p Property) WithItems(items PropertySchema) Property {
	p.Schema.Items = &items
	return p
}

// InputSchema is the ordered parameter schema of a tool.
type InputSchema struct {
	Properties []Property
	Required   []string
}

// NewInputSchema builds a schema from required names and ordered properties.
func NewInputSchema(required []string, props ...Property) InputSchema {
	return InputSchema{Properties: props, Required: required}
}

// Property returns the schema of the named parameter.
func (s InputSchema) Property(name string) (PropertySchema, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return PropertySchema{}, false
}

// IsRequired reports whether name is a required parameter.
func (s InputSchema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

// JSONSchema renders the schema as a JSON Schema object.
func (s InputSchema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		properties[p.Name] = propertyJSONSchema(p.Schema)
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(s.Required) > 0 {
		required := make([]any, len(s.Required))
		for i, r := range s.Required {
			required[i] = r
		}
		schema["required"] = required
	}
	return schema
}

func propertyJSONSchema(p PropertySchema) map[string]any {
	out := map[string]any{
		"type":        p.Type,
		"description": p.Description,
	}
	if len(p.Enum) > 0 {
		enum := make([]any, len(p.Enum))
		for i, e := range p.Enum {
			enum[i] = e
		}
		out["enum"] = enum
	}
	if p.Default != nil {
		out["default"] = *p.Default
	}
	if p.Items != nil {
		out["items"] = propertyJSONSchema(*p.Items)
	}
	return out
}

// ParamError is returned when parameters do not satisfy the schema.
type ParamError struct {
	Param  string `json:"param"`
	Reason string `json:"reason"`
}

// Error returns the error message for the ParamError
func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter '%s': %s", e.Param, e.Reason)
}

// Interface guard for ParamError
var _ error = &ParamError{}

// Prepare checks params against the schema and returns a copy with defaults
// filled in for absent optional parameters. Unknown parameters are passed
// through untouched.
func (s InputSchema) Prepare(params map[string]any) (map[string]any, error) {
	prepared := make(map[string]any, len(params)+len(s.Properties))
	for k, v := range params {
		prepared[k] = v
	}

	for _, name := range s.Required {
		if v, ok := prepared[name]; !ok || v == nil {
			return nil, &ParamError{Param: name, Reason: "required parameter is missing"}
		}
	}

	for _, p := range s.Properties {
		v, ok := prepared[p.Name]
		if !ok || v == nil {
			if p.Schema.Default != nil {
				prepared[p.Name] = *p.Schema.Default
			}
			continue
		}
		if len(p.Schema.Enum) > 0 && !slices.Contains(p.Schema.Enum, fmt.Sprint(v)) {
			return nil, &ParamError{
				Param:  p.Name,
				Reason: fmt.Sprintf("value %v is not one of %v", v, p.Schema.Enum),
			}
		}
	}

	return prepared, nil
}

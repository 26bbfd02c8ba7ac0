package batch

import (
	"encoding/json"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Schema describes the structured output expected from the model:
// field names, their types, and which are required. It is constructed
// once by the caller and compiled into a strict json_schema response
// format that forbids extra fields.
type Schema struct {
	Name   string           `json:"name"`
	Fields map[string]Field `json:"fields"`
}

// Field describes one output field.
type Field struct {
	Type        string `json:"type"` // string, number, integer, boolean
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

var fieldTypes = map[string]jsonschema.DataType{
	"string":  jsonschema.String,
	"number":  jsonschema.Number,
	"integer": jsonschema.Integer,
	"boolean": jsonschema.Boolean,
}

// ResponseFormat compiles the schema into the response_format payload
// sent with every request. It fails with *SchemaError before any remote
// call when the schema cannot be derived.
func (s Schema) ResponseFormat() (json.RawMessage, error) {
	if s.Name == "" {
		return nil, &SchemaError{Reason: "name is empty"}
	}
	if len(s.Fields) == 0 {
		return nil, &SchemaError{Reason: "no fields defined"}
	}

	properties := make(map[string]jsonschema.Definition, len(s.Fields))
	var required []string
	for name, field := range s.Fields {
		dt, ok := fieldTypes[field.Type]
		if !ok {
			return nil, &SchemaError{Field: name, Reason: fmt.Sprintf("unknown type %q", field.Type)}
		}
		properties[name] = jsonschema.Definition{
			Type:        dt,
			Description: field.Description,
		}
		if field.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	format := openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name: s.Name,
			Schema: &jsonschema.Definition{
				Type:                 jsonschema.Object,
				Properties:           properties,
				Required:             required,
				AdditionalProperties: false,
			},
			Strict: true,
		},
	}

	data, err := json.Marshal(format)
	if err != nil {
		return nil, fmt.Errorf("marshal response format: %w", err)
	}
	return data, nil
}

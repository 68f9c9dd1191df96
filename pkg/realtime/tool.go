package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// Tool defines a function tool available to the model.
type Tool struct {
	// Type is always "function".
	Type string `json:"type" yaml:"type"`

	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitzero" yaml:"description,omitempty"`

	// Parameters is the JSON Schema of the function arguments.
	Parameters map[string]any `json:"parameters,omitzero" yaml:"parameters,omitempty"`
}

// NewFunctionTool returns a function tool whose parameter schema is inferred
// from ArgType.
//
//	type weatherArgs struct {
//	    City string `json:"city" jsonschema:"the city to look up"`
//	}
//	tool, err := realtime.NewFunctionTool[weatherArgs]("get_weather", "Look up the weather")
func NewFunctionTool[ArgType any](name, description string) (Tool, error) {
	schema, err := jsonschema.For[ArgType](nil)
	if err != nil {
		return Tool{}, fmt.Errorf("realtime: schema for tool %q: %w", name, err)
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return Tool{}, fmt.Errorf("realtime: marshal schema for tool %q: %w", name, err)
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return Tool{}, fmt.Errorf("realtime: unmarshal schema for tool %q: %w", name, err)
	}
	return Tool{
		Type:        "function",
		Name:        name,
		Description: description,
		Parameters:  params,
	}, nil
}

// DecodeArguments unmarshals the call's argument string into v. Model output
// is occasionally truncated or slightly malformed, so on a JSON syntax error
// the arguments are repaired before a second attempt.
func (c *FunctionCall) DecodeArguments(v any) error {
	err := json.Unmarshal([]byte(c.Arguments), v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return fmt.Errorf("realtime: decode arguments of %q: %w", c.Name, err)
	}
	fixed, rerr := jsonrepair.JSONRepair(c.Arguments)
	if rerr != nil {
		return fmt.Errorf("realtime: repair arguments of %q: %w", c.Name, rerr)
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return fmt.Errorf("realtime: decode arguments of %q: %w", c.Name, err)
	}
	return nil
}

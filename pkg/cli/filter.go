package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter is a compiled jq expression applied to events before printing.
type Filter struct {
	expr string
	code *gojq.Code
}

// ParseFilter compiles a jq expression, e.g. `select(.kind == "responseTextDelta") | .delta`.
func ParseFilter(expr string) (*Filter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, code: code}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Apply runs the filter on v, which is first normalized to the plain JSON
// value tree gojq operates on. It returns every value the expression emits;
// an empty result means v was filtered out.
func (f *Filter) Apply(v any) ([]any, error) {
	input, err := toJQValue(v)
	if err != nil {
		return nil, err
	}

	var out []any
	iter := f.code.Run(input)
	for {
		x, ok := iter.Next()
		if !ok {
			return out, nil
		}
		if err, ok := x.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return out, nil
			}
			return nil, fmt.Errorf("filter %q: %w", f.expr, err)
		}
		out = append(out, x)
	}
}

func toJQValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("filter input: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("filter input: %w", err)
	}
	return out, nil
}

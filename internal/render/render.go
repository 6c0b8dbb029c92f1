// Package render evaluates JSON-e templates of action and hook definitions.
package render

import (
	"encoding/json"
	"errors"
	"fmt"

	jsone "github.com/json-e/json-e/v4"
)

// ErrNotObject is returned when a template does not render to an object.
var ErrNotObject = errors.New("template did not render to an object")

// Value renders template against ctx. Both are normalised to plain JSON
// values first, so Go maps and numeric types of any kind are accepted.
// The template is not modified.
func Value(template any, ctx map[string]any) (any, error) {
	var tmpl any
	if err := normalise(template, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	context := map[string]any{}
	if err := normalise(ctx, &context); err != nil {
		return nil, fmt.Errorf("failed to encode context: %w", err)
	}

	rendered, err := jsone.Render(tmpl, context)
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return rendered, nil
}

// Object renders template and requires the result to be an object.
func Object(template map[string]any, ctx map[string]any) (map[string]any, error) {
	rendered, err := Value(template, ctx)
	if err != nil {
		return nil, err
	}
	obj, ok := rendered.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, rendered)
	}
	return obj, nil
}

func normalise(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

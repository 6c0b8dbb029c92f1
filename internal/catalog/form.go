package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidForm is returned when form text is not valid YAML.
	ErrInvalidForm = errors.New("invalid action form")
	// ErrSchemaViolation is returned when the form does not satisfy the action schema.
	ErrSchemaViolation = errors.New("action input does not match schema")
)

// ParseForm decodes the YAML form text of an action into a JSON compatible
// value and validates it against the action's schema, if any.
func ParseForm(action types.Action, text string) (any, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	// normalize through JSON so numbers and maps match what the schema
	// validator and the queue see
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	if len(action.Schema) == 0 {
		return input, nil
	}
	if err := validate(action.Schema, input); err != nil {
		return nil, err
	}
	return input, nil
}

func validate(schema map[string]any, input any) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	compiled, err := jsonschema.NewCompiler().Compile(data)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	result := compiled.Validate(input)
	if result.Valid {
		return nil
	}

	messages := make([]string, 0, len(result.Errors))
	for field, e := range result.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", field, e.Message))
	}
	sort.Strings(messages)
	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(messages, "; "))
}

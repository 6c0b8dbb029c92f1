package catalog

import (
	"strings"

	"github.com/mohae/deepcopy"
	"gopkg.in/yaml.v3"
)

const (
	maxSchemaDepth = 32
	// maxArrayItems bounds minItems of a single array; maxDefaultItems bounds
	// the array elements generated for one schema.
	maxArrayItems   = 100
	maxDefaultItems = 1000
)

// DefaultInput renders the default document of schema as YAML form text.
// A missing or unusable schema yields an empty object.
func DefaultInput(schema map[string]any) string {
	doc := Defaults(schema)
	if doc == nil {
		doc = map[string]any{}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "{}\n"
	}
	return string(data)
}

// Defaults builds the default instance described by schema: explicit
// "default" values, objects assembled from their properties' defaults and
// arrays padded to minItems. It returns nil when the schema defines nothing.
func Defaults(schema map[string]any) any {
	if schema == nil {
		return nil
	}
	d := &defaulter{defs: definitionsOf(schema), budget: maxDefaultItems}
	return d.defaultsFor(schema, 0)
}

type defaulter struct {
	defs   map[string]any
	budget int
}

func definitionsOf(schema map[string]any) map[string]any {
	defs := make(map[string]any)
	for _, key := range []string{"definitions", "$defs"} {
		if m, ok := schema[key].(map[string]any); ok {
			for name, def := range m {
				defs[key+"/"+name] = def
			}
		}
	}
	return defs
}

func (d *defaulter) defaultsFor(schema map[string]any, depth int) any {
	if depth > maxSchemaDepth {
		return nil
	}

	if value, ok := schema["default"]; ok {
		return deepcopy.Copy(value)
	}

	if allOf, ok := schema["allOf"].([]any); ok {
		return d.defaultsFor(mergeAllOf(allOf, d.defs, depth), depth+1)
	}

	if ref, ok := schema["$ref"].(string); ok {
		resolved := resolveRef(ref, d.defs)
		if resolved == nil {
			return nil
		}
		return d.defaultsFor(resolved, depth+1)
	}

	switch schema["type"] {
	case "object":
		props, ok := schema["properties"].(map[string]any)
		if !ok {
			return map[string]any{}
		}
		out := make(map[string]any)
		for name, raw := range props {
			prop, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if value := d.defaultsFor(prop, depth+1); value != nil {
				out[name] = value
			}
		}
		return out

	case "array":
		items, ok := schema["items"].(map[string]any)
		if !ok {
			return []any{}
		}
		n := minItems(schema)
		if n > maxArrayItems || n > d.budget {
			return nil
		}
		d.budget -= n
		out := []any{}
		for i := 0; i < n; i++ {
			if value := d.defaultsFor(items, depth+1); value != nil {
				out = append(out, value)
			}
		}
		return out
	}

	return nil
}

// mergeAllOf folds the subschemas into one, later keys winning except for
// properties, which are merged.
func mergeAllOf(allOf []any, defs map[string]any, depth int) map[string]any {
	merged := make(map[string]any)
	props := make(map[string]any)

	for _, raw := range allOf {
		sub, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if ref, ok := sub["$ref"].(string); ok && depth < maxSchemaDepth {
			if resolved := resolveRef(ref, defs); resolved != nil {
				sub = resolved
			}
		}
		for key, value := range sub {
			if key == "properties" {
				if p, ok := value.(map[string]any); ok {
					for name, prop := range p {
						props[name] = prop
					}
				}
				continue
			}
			merged[key] = value
		}
	}

	if len(props) > 0 {
		merged["properties"] = props
		if _, ok := merged["type"]; !ok {
			merged["type"] = "object"
		}
	}
	return merged
}

func resolveRef(ref string, defs map[string]any) map[string]any {
	key, ok := strings.CutPrefix(ref, "#/")
	if !ok {
		return nil
	}
	resolved, _ := defs[key].(map[string]any)
	return resolved
}

func minItems(schema map[string]any) int {
	switch n := schema["minItems"].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n > maxArrayItems {
			return maxArrayItems + 1
		}
		return int(n)
	default:
		return 0
	}
}

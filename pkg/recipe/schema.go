// Package recipe turns command line arguments into validated recipe parameters.
//
// A custom recipe publishes a JSON schema describing its input. Parameters can
// then be passed after "--" on the command line and are typed using that
// schema:
//
//	adpt run grpo -- --learning_rate 0.0001 --epochs 3 --dry_run --dataset '{"key": "train"}'
//
// Integer, number and boolean properties are parsed from their text form,
// strings are taken as-is and anything else (objects, arrays, oneOf/anyOf
// unions) is parsed as JSON.
package recipe

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceID = "inmemory://recipe-schema.json"

type (
	// Schema is a recipe's input schema.
	Schema struct {
		Title      string              `json:"title"`
		Properties map[string]Property `json:"properties"`
		Required   []string            `json:"required"`

		compiled *jsonschema.Schema
	}

	// Property is a single recipe parameter.
	Property struct {
		Type        types             `json:"type"`
		Description string            `json:"description"`
		Default     any               `json:"default"`
		OneOf       []json.RawMessage `json:"oneOf"`
		AnyOf       []json.RawMessage `json:"anyOf"`
	}

	// Parameter describes a property for display.
	Parameter struct {
		Name        string
		Type        string
		Required    bool
		Description string
		Default     any
	}

	// types accepts both "type": "string" and "type": ["string", "null"].
	types []string
)

// ParseSchema parses and compiles a recipe schema. An empty or null schema
// describes a recipe without parameters.
func ParseSchema(raw []byte) (*Schema, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte(`{"type": "object"}`)
	}

	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse recipe schema")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(err, "failed to load recipe schema")
	}

	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile recipe schema")
	}

	s.compiled = compiled
	return &s, nil
}

// Parameters lists the schema's properties sorted by name.
func (s *Schema) Parameters() []Parameter {
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	params := make([]Parameter, 0, len(s.Properties))
	for name, prop := range s.Properties {
		params = append(params, Parameter{
			Name:        name,
			Type:        prop.kind(),
			Required:    required[name],
			Description: prop.Description,
			Default:     prop.Default,
		})
	}

	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params
}

// ParseArgs converts "--name value" and "--name=value" pairs into typed
// parameters. A boolean flag without a value is true.
func (s *Schema) ParseArgs(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			return nil, errors.Errorf("unexpected argument %q: recipe parameters are passed as --name value", arg)
		}

		name, value, hasValue := strings.Cut(arg[2:], "=")
		prop, ok := s.Properties[name]
		if !ok {
			return nil, errors.Errorf("unknown recipe parameter --%s", name)
		}

		if _, ok := params[name]; ok {
			return nil, errors.Errorf("recipe parameter --%s given more than once", name)
		}

		if !hasValue {
			next := i + 1
			switch {
			case next < len(args) && !strings.HasPrefix(args[next], "--"):
				value = args[next]
				i = next
			case prop.kind() == "boolean":
				value = "true"
			default:
				return nil, errors.Errorf("missing value for recipe parameter --%s", name)
			}
		}

		v, err := prop.convert(name, value)
		if err != nil {
			return nil, err
		}

		params[name] = v
	}

	var missing []string
	for _, name := range s.Required {
		if _, ok := params[name]; !ok {
			missing = append(missing, "--"+name)
		}
	}

	if len(missing) > 0 {
		return nil, errors.Errorf("missing required recipe parameters: %s", strings.Join(missing, ", "))
	}

	return params, nil
}

// Validate checks params against the schema.
func (s *Schema) Validate(params map[string]any) error {
	// Round trip through JSON so numbers and nested values have the shapes the
	// validator expects.
	data, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "failed to encode recipe parameters")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "failed to decode recipe parameters")
	}

	if err := s.compiled.Validate(doc); err != nil {
		return errors.Wrap(err, "invalid recipe parameters")
	}

	return nil
}

func (p Property) kind() string {
	if len(p.OneOf) > 0 || len(p.AnyOf) > 0 {
		return "json"
	}

	for _, t := range p.Type {
		if t != "null" {
			return t
		}
	}

	return ""
}

func (p Property) convert(name, value string) (any, error) {
	switch kind := p.kind(); kind {
	case "string":
		return value, nil
	case "integer":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Errorf("recipe parameter --%s expects an integer, got %q", name, value)
		}
		return v, nil
	case "number":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Errorf("recipe parameter --%s expects a number, got %q", name, value)
		}
		return v, nil
	case "boolean":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.Errorf("recipe parameter --%s expects a boolean, got %q", name, value)
		}
		return v, nil
	case "json", "object", "array":
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return nil, errors.Wrapf(err, "recipe parameter --%s expects JSON", name)
		}
		return v, nil
	default:
		return nil, errors.Errorf("unknown type %q specified in schema for %s", kind, name)
	}
}

func (t *types) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = types{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.Wrap(err, "schema type must be a string or an array of strings")
	}

	*t = many
	return nil
}

package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

var (
	// ErrMalformedArguments means the arguments are not a JSON object.
	ErrMalformedArguments = errors.New("malformed tool arguments")
	// ErrInvalidArguments means the arguments parse but violate the schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// ValidateArguments parses raw tool-call arguments and checks them against
// the tool's declared schema: required members, primitive types, string
// enums and array item schemas. Unknown members are ignored.
func ValidateArguments(tool mcptypes.Tool, raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrMalformedArguments, tool.Name, err)
		}
		if args == nil {
			return nil, fmt.Errorf("%w for %s: null", ErrMalformedArguments, tool.Name)
		}
	}

	if err := validateObject(schemaParameters(tool), args, ""); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, tool.Name, err)
	}

	return args, nil
}

func validateObject(schema map[string]any, value map[string]any, path string) error {
	for _, name := range requiredMembers(schema) {
		if v, ok := value[name]; !ok || v == nil {
			return fmt.Errorf("%s is required", joinPath(path, name))
		}
	}

	properties, _ := asSchemaMap(schema["properties"])
	for name, propSchema := range properties {
		v, ok := value[name]
		if !ok || v == nil {
			continue
		}
		prop, ok := asSchemaMap(propSchema)
		if !ok {
			continue
		}
		if err := validateValue(prop, v, joinPath(path, name)); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(schema map[string]any, value any, path string) error {
	schemaType, _ := schema["type"].(string)

	switch schemaType {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s must be a string", path)
		}
		if enum := enumValues(schema); len(enum) > 0 && !slices.Contains(enum, s) {
			return fmt.Errorf("%s: %q is not one of %s", path, s, strings.Join(enum, ", "))
		}
	case "number", "integer":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("%s must be a number", path)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s must be a boolean", path)
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s must be an array", path)
		}
		itemSchema, ok := asSchemaMap(schema["items"])
		if !ok || schema["items"] == nil {
			return nil
		}
		for i, item := range items {
			if err := validateValue(itemSchema, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s must be an object", path)
		}
		return validateObject(schema, obj, path)
	}

	return nil
}

func requiredMembers(schema map[string]any) []string {
	switch r := schema["required"].(type) {
	case []string:
		return r
	case []any:
		names := make([]string, 0, len(r))
		for _, v := range r {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

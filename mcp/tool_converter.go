// Package mcp holds the tool-schema plumbing shared by every completion
// backend. Tools are declared once as MCP tool definitions
// (github.com/mark3labs/mcp-go/mcp) and converted here into the request
// shape each SDK expects; arguments coming back are validated against the
// same definitions.
package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// schemaParameters flattens an MCP input schema into a JSON-schema map.
func schemaParameters(tool mcptypes.Tool) map[string]any {
	schemaType := tool.InputSchema.Type
	if schemaType == "" {
		schemaType = "object"
	}

	properties := tool.InputSchema.Properties
	if properties == nil {
		// OpenAI rejects an object schema without a properties member
		properties = map[string]any{}
	}

	params := map[string]any{
		"type":       schemaType,
		"properties": properties,
	}
	if len(tool.InputSchema.Required) > 0 {
		params["required"] = tool.InputSchema.Required
	}
	if tool.InputSchema.Defs != nil {
		params["$defs"] = tool.InputSchema.Defs
	}
	return params
}

// ConvertMCPToolsToOpenAIFormat converts tool definitions to OpenAI
// function tools.
//
//	{"type": "function", "function": {"name": ..., "description": ..., "parameters": {...}}}
func ConvertMCPToolsToOpenAIFormat(mcpTools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(mcpTools))
	for i, tool := range mcpTools {
		result[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(schemaParameters(tool)),
			},
		)
	}

	return result
}

// ConvertMCPToolsToAnthropicFormat converts tool definitions to Anthropic
// tools (input_schema carries the JSON schema).
func ConvertMCPToolsToAnthropicFormat(mcpTools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(mcpTools))
	for i, tool := range mcpTools {
		properties := tool.InputSchema.Properties
		if properties == nil {
			properties = map[string]any{}
		}

		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			inputSchema.Required = tool.InputSchema.Required
		}
		if tool.InputSchema.Defs != nil {
			inputSchema.ExtraFields = map[string]any{
				"$defs": tool.InputSchema.Defs,
			}
		}

		result[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
		if tool.Description != "" {
			result[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}

	return result
}

// ConvertMCPToolsToOllama converts tool definitions to Ollama API tools.
func ConvertMCPToolsToOllama(mcpTools []mcptypes.Tool) []api.Tool {
	ollamaTools := make([]api.Tool, 0, len(mcpTools))

	for _, mcpTool := range mcpTools {
		ollamaTools = append(ollamaTools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        mcpTool.Name,
				Description: mcpTool.Description,
				Parameters:  convertInputSchemaToParameters(mcpTool.InputSchema),
			},
		})
	}

	return ollamaTools
}

func convertInputSchemaToParameters(inputSchema mcptypes.ToolInputSchema) api.ToolFunctionParameters {
	schemaType := inputSchema.Type
	if schemaType == "" {
		schemaType = "object"
	}

	params := api.ToolFunctionParameters{
		Type:       schemaType,
		Required:   inputSchema.Required,
		Properties: make(map[string]api.ToolProperty),
	}
	if inputSchema.Defs != nil {
		params.Defs = inputSchema.Defs
	}

	for propName, propValue := range inputSchema.Properties {
		params.Properties[propName] = convertPropertyValue(propValue)
	}

	return params
}

// convertPropertyValue maps one JSON-schema property onto api.ToolProperty.
// Array item schemas are passed through untouched.
func convertPropertyValue(propValue any) api.ToolProperty {
	toolProp := api.ToolProperty{}

	propMap, ok := asSchemaMap(propValue)
	if !ok {
		return toolProp
	}

	switch t := propMap["type"].(type) {
	case string:
		toolProp.Type = api.PropertyType{t}
	case []string:
		toolProp.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		toolProp.Type = api.PropertyType(types)
	}

	if desc, ok := propMap["description"].(string); ok {
		toolProp.Description = desc
	}

	if enum := enumValues(propMap); len(enum) > 0 {
		toolProp.Enum = make([]any, len(enum))
		for i, v := range enum {
			toolProp.Enum[i] = v
		}
	}

	if items, ok := propMap["items"]; ok {
		toolProp.Items = items
	}

	if anyOf, ok := propMap["anyOf"].([]any); ok {
		toolProp.AnyOf = make([]api.ToolProperty, 0, len(anyOf))
		for _, item := range anyOf {
			toolProp.AnyOf = append(toolProp.AnyOf, convertPropertyValue(item))
		}
	}

	return toolProp
}

// asSchemaMap normalises a schema fragment to map[string]any, round-tripping
// through JSON when it is some other Go value.
func asSchemaMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// enumValues returns the enum of a schema fragment as strings. mcp-go's
// Enum option stores []string; schemas decoded from JSON hold []any.
func enumValues(schema map[string]any) []string {
	switch e := schema["enum"].(type) {
	case []string:
		return e
	case []any:
		values := make([]string, 0, len(e))
		for _, v := range e {
			if s, ok := v.(string); ok {
				values = append(values, s)
			}
		}
		return values
	}
	return nil
}

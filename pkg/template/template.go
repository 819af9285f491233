// Package template renders block configuration strings against the execution
// context, so a node can reference trigger data, workflow variables, and the
// outputs of upstream nodes.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// Data is the root object exposed to templates.
type Data struct {
	ExecutionID string
	WorkflowID  string
	TriggerData map[string]any
	Variables   map[string]any
	NodeOutputs map[string]any
}

// RenderWithContext renders input against the execution context. Templates
// may reference {{.trigger_data.*}}, {{.variables.*}} and {{.nodes.<id>.*}}.
func RenderWithContext(input string, data Data) (any, error) {
	root := map[string]any{
		"trigger_data": data.TriggerData,
		"variables":    data.Variables,
		"vars":         data.Variables,
		"nodes":        data.NodeOutputs,
		"execution": map[string]any{
			"id":          data.ExecutionID,
			"workflow_id": data.WorkflowID,
		},
	}

	return Render(input, root)
}

// RenderString is RenderWithContext restricted to a string result.
func RenderString(input string, data Data) (string, error) {
	rendered, err := RenderWithContext(input, data)
	if err != nil {
		return "", err
	}

	if s, ok := rendered.(string); ok {
		return s, nil
	}

	encoded, err := json.Marshal(rendered)
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// Render executes the template over data and coerces the rendered text:
// JSON-looking output is decoded, then numbers and booleans are tried, and
// anything else comes back as a string.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("block").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"json": func(v any) string {
				encoded, err := json.Marshal(v)
				if err != nil {
					return ""
				}

				return string(encoded)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err != nil {
			return nil, fmt.Errorf("failed to parse json '%s': %w", result, err)
		}

		return jsonResult, nil
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

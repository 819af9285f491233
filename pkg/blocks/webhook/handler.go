// Package webhook implements the outgoing webhook block: an HTTP request to
// an external endpoint with a templated payload.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// Config defines the configuration for webhook nodes.
type Config struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
}

// Handler executes webhook nodes.
type Handler struct {
	nodeID string
	config Config
	client *http.Client
}

// NewHandler creates a webhook handler from node configuration.
func NewHandler(node *models.Node) (*Handler, error) {
	config := Config{
		Method:  http.MethodPost,
		Headers: make(map[string]string),
	}

	url, ok := node.Config["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	config.URL = url

	if method, ok := node.Config["method"].(string); ok && method != "" {
		config.Method = strings.ToUpper(method)
	}

	if headers, ok := node.Config["headers"].(map[string]any); ok {
		for k, v := range headers {
			if value, ok := v.(string); ok {
				config.Headers[k] = value
			}
		}
	}

	if body, ok := node.Config["body"].(string); ok {
		config.Body = body
	}

	return &Handler{
		nodeID: node.ID,
		config: config,
		client: &http.Client{},
	}, nil
}

// Execute renders URL and body against the execution context, performs the
// request, and returns status plus the decoded response body. A non-2xx
// status fails the node.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	data := blocks.TemplateData(execCtx)

	url, err := template.RenderString(h.config.URL, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render webhook url: %w", err)
	}

	var body io.Reader

	if h.config.Body != "" {
		rendered, err := template.RenderString(h.config.Body, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render webhook body: %w", err)
		}

		body = strings.NewReader(rendered)
	}

	req, err := http.NewRequestWithContext(ctx, h.config.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range h.config.Headers {
		rendered, err := template.RenderString(v, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render webhook header %s: %w", k, err)
		}

		req.Header.Set(k, rendered)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        decoded,
	}, nil
}

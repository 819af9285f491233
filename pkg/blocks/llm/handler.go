// Package llm implements the LLM prompt block: a templated prompt sent to an
// OpenAI-compatible chat completion endpoint. Provider selection and
// failover live outside this process; the block talks to exactly one
// configured endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// Config defines the configuration for llm nodes.
type Config struct {
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Handler executes llm nodes.
type Handler struct {
	nodeID string
	config Config
	apiKey string
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// NewHandler creates an llm handler from node configuration. The API key is
// read from LLM_API_KEY rather than stored in workflow config.
func NewHandler(node *models.Node) (*Handler, error) {
	config := Config{Temperature: 0.2}

	baseURL, ok := node.Config["base_url"].(string)
	if !ok || baseURL == "" {
		return nil, errors.New("missing required field 'base_url'")
	}

	config.BaseURL = strings.TrimSuffix(baseURL, "/")

	model, ok := node.Config["model"].(string)
	if !ok || model == "" {
		return nil, errors.New("missing required field 'model'")
	}

	config.Model = model

	prompt, ok := node.Config["prompt"].(string)
	if !ok || prompt == "" {
		return nil, errors.New("missing required field 'prompt'")
	}

	config.Prompt = prompt

	if system, ok := node.Config["system"].(string); ok {
		config.System = system
	}

	if temperature, ok := node.Config["temperature"].(float64); ok {
		config.Temperature = temperature
	}

	if maxTokens, ok := node.Config["max_tokens"].(float64); ok {
		config.MaxTokens = int(maxTokens)
	}

	return &Handler{
		nodeID: node.ID,
		config: config,
		apiKey: os.Getenv("LLM_API_KEY"),
		client: &http.Client{},
	}, nil
}

// Execute renders the prompt and requests a completion.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	prompt, err := template.RenderString(h.config.Prompt, blocks.TemplateData(execCtx))
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	messages := make([]chatMessage, 0, 2)
	if h.config.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: h.config.System})
	}

	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{
		Model:       h.config.Model,
		Messages:    messages,
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(decoded.Choices) == 0 {
		return nil, errors.New("llm endpoint returned no choices")
	}

	return map[string]any{
		"text":              decoded.Choices[0].Message.Content,
		"model":             h.config.Model,
		"prompt_tokens":     decoded.Usage.PromptTokens,
		"completion_tokens": decoded.Usage.CompletionTokens,
	}, nil
}

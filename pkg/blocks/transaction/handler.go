// Package transaction implements on-chain writes: submitting a signed or
// delegated transaction through a JSON-RPC endpoint. Transaction nodes
// require a session-key authorization on the execution; runs without one
// fail before any request is sent.
package transaction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// Config defines the configuration for transaction nodes.
type Config struct {
	RPCURL string `json:"rpc_url"`
	To     string `json:"to"`
	Value  string `json:"value"`
	Data   string `json:"data,omitempty"`
}

// Handler executes transaction nodes.
type Handler struct {
	nodeID string
	config Config
	client *http.Client
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewHandler creates a transaction handler from node configuration.
func NewHandler(node *models.Node) (*Handler, error) {
	rpcURL, ok := node.Config["rpc_url"].(string)
	if !ok || rpcURL == "" {
		return nil, errors.New("missing required field 'rpc_url'")
	}

	to, ok := node.Config["to"].(string)
	if !ok || to == "" {
		return nil, errors.New("missing required field 'to'")
	}

	value, ok := node.Config["value"].(string)
	if !ok || value == "" {
		return nil, errors.New("missing required field 'value'")
	}

	config := Config{RPCURL: rpcURL, To: to, Value: value}

	if data, ok := node.Config["data"].(string); ok {
		config.Data = data
	}

	return &Handler{
		nodeID: node.ID,
		config: config,
		client: &http.Client{},
	}, nil
}

// Execute submits the transaction through the delegated session key. The
// authorization payload is passed through to the signer endpoint untouched;
// limit enforcement happens on the signing side.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	if execCtx.Authorization == nil {
		return nil, errors.New("transaction node requires a session key authorization")
	}

	if execCtx.Authorization.Expired(time.Now()) {
		return nil, fmt.Errorf("session key for delegator %s expired at %s",
			execCtx.Authorization.Delegator, execCtx.Authorization.ExpiresAt.Format(time.RFC3339))
	}

	data := blocks.TemplateData(execCtx)

	to, err := template.RenderString(h.config.To, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render recipient: %w", err)
	}

	value, err := template.RenderString(h.config.Value, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render value: %w", err)
	}

	call := map[string]any{
		"from":  execCtx.Authorization.Delegator,
		"to":    to,
		"value": value,
	}

	if h.config.Data != "" {
		call["data"] = h.config.Data
	}

	result, err := h.call(ctx, "eth_sendTransaction", []any{call}, execCtx.Authorization.SessionKey)
	if err != nil {
		return nil, err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return nil, fmt.Errorf("failed to decode transaction hash: %w", err)
	}

	return map[string]any{
		"transaction_hash": txHash,
		"to":               to,
		"value":            value,
		"chain_id":         execCtx.Authorization.ChainID,
	}, nil
}

func (h *Handler) call(ctx context.Context, method string, params []any, sessionKey string) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.RPCURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build rpc request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Key", sessionKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode rpc response: %w", err)
	}

	if decoded.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}

	return decoded.Result, nil
}

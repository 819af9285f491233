// Package wallet implements read-only chain queries: balance lookups over
// JSON-RPC against an EVM-compatible endpoint.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// Config defines the configuration for wallet nodes.
type Config struct {
	RPCURL  string `json:"rpc_url"`
	Address string `json:"address"`
}

// Handler executes wallet nodes.
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

// NewHandler creates a wallet handler from node configuration.
func NewHandler(node *models.Node) (*Handler, error) {
	rpcURL, ok := node.Config["rpc_url"].(string)
	if !ok || rpcURL == "" {
		return nil, errors.New("missing required field 'rpc_url'")
	}

	address, ok := node.Config["address"].(string)
	if !ok || address == "" {
		return nil, errors.New("missing required field 'address'")
	}

	return &Handler{
		nodeID: node.ID,
		config: Config{RPCURL: rpcURL, Address: address},
		client: &http.Client{},
	}, nil
}

// Execute queries the native balance of the configured address.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	address, err := template.RenderString(h.config.Address, blocks.TemplateData(execCtx))
	if err != nil {
		return nil, fmt.Errorf("failed to render address: %w", err)
	}

	result, err := h.call(ctx, "eth_getBalance", []any{address, "latest"})
	if err != nil {
		return nil, err
	}

	var hexBalance string
	if err := json.Unmarshal(result, &hexBalance); err != nil {
		return nil, fmt.Errorf("failed to decode balance: %w", err)
	}

	balance, ok := new(big.Int).SetString(strings.TrimPrefix(hexBalance, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("rpc endpoint returned malformed balance %q", hexBalance)
	}

	return map[string]any{
		"address":     address,
		"balance_wei": balance.String(),
	}, nil
}

func (h *Handler) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.RPCURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build rpc request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

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

package wallet

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

func execContext() models.ExecutionContext {
	return models.ExecutionContext{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		TriggerData: map[string]any{"address": "0xabc"},
		Variables:   map[string]any{},
		NodeOutputs: map[string]any{},
		Logger:      slog.Default(),
	}
}

func TestNewHandler_RequiredFields(t *testing.T) {
	_, err := NewHandler(&models.Node{ID: "w1", Config: map[string]any{"address": "0xabc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc_url")

	_, err = NewHandler(&models.Node{ID: "w1", Config: map[string]any{"rpc_url": "http://localhost"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}

func TestExecute_QueriesBalance(t *testing.T) {
	var gotParams []any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_getBalance", req.Method)
		gotParams = req.Params

		// 1 ether in wei.
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "0xde0b6b3a7640000"})
	}))
	defer server.Close()

	handler, err := NewHandler(&models.Node{
		ID:     "w1",
		Config: map[string]any{"rpc_url": server.URL, "address": "{{.trigger_data.address}}"},
	})
	require.NoError(t, err)

	output, err := handler.Execute(t.Context(), execContext())
	require.NoError(t, err)

	// The templated address is rendered before the query.
	assert.Equal(t, []any{"0xabc", "latest"}, gotParams)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0xabc", result["address"])
	assert.Equal(t, "1000000000000000000", result["balance_wei"])
}

func TestExecute_MalformedBalanceFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "0xZZZ"})
	}))
	defer server.Close()

	handler, err := NewHandler(&models.Node{
		ID:     "w1",
		Config: map[string]any{"rpc_url": server.URL, "address": "0xabc"},
	})
	require.NoError(t, err)

	_, err = handler.Execute(t.Context(), execContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed balance")
}

func TestExecute_RPCErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": -32602, "message": "invalid address"},
		})
	}))
	defer server.Close()

	handler, err := NewHandler(&models.Node{
		ID:     "w1",
		Config: map[string]any{"rpc_url": server.URL, "address": "0xabc"},
	})
	require.NoError(t, err)

	_, err = handler.Execute(t.Context(), execContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}

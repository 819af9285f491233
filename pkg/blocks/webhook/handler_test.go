package webhook

import (
	"encoding/json"
	"io"
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
		TriggerData: map[string]any{"symbol": "SEI"},
		Variables:   map[string]any{"channel": "alerts"},
		NodeOutputs: map[string]any{},
		Logger:      slog.Default(),
	}
}

func TestNewHandler_RequiresURL(t *testing.T) {
	_, err := NewHandler(&models.Node{ID: "w1", Config: map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestExecute_PostsTemplatedBody(t *testing.T) {
	var (
		gotMethod string
		gotHeader string
		gotBody   map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Channel")

		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	handler, err := NewHandler(&models.Node{
		ID: "w1",
		Config: map[string]any{
			"url":     server.URL,
			"headers": map[string]any{"X-Channel": "{{.vars.channel}}"},
			"body":    `{"symbol": "{{.trigger_data.symbol}}"}`,
		},
	})
	require.NoError(t, err)

	output, err := handler.Execute(t.Context(), execContext())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "alerts", gotHeader)
	assert.Equal(t, map[string]any{"symbol": "SEI"}, gotBody)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, result["status_code"])
	assert.Equal(t, map[string]any{"ok": true}, result["body"])
}

func TestExecute_CustomMethodIsUppercased(t *testing.T) {
	var gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	handler, err := NewHandler(&models.Node{
		ID:     "w1",
		Config: map[string]any{"url": server.URL, "method": "put"},
	})
	require.NoError(t, err)

	_, err = handler.Execute(t.Context(), execContext())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestExecute_NonSuccessStatusFailsNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	handler, err := NewHandler(&models.Node{
		ID:     "w1",
		Config: map[string]any{"url": server.URL},
	})
	require.NoError(t, err)

	_, err = handler.Execute(t.Context(), execContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestExecute_NonJSONResponseIsPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text response"))
	}))
	defer server.Close()

	handler, err := NewHandler(&models.Node{
		ID:     "w1",
		Config: map[string]any{"url": server.URL},
	})
	require.NoError(t, err)

	output, err := handler.Execute(t.Context(), execContext())
	require.NoError(t, err)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "plain text response", result["body"])
}

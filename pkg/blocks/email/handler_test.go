package email

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

func execContext() models.ExecutionContext {
	return models.ExecutionContext{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		TriggerData: map[string]any{"symbol": "SEI", "price": 1.25},
		Variables:   map[string]any{},
		NodeOutputs: map[string]any{},
		Logger:      slog.Default(),
	}
}

func emailConfig() map[string]any {
	return map[string]any{
		"host":    "smtp.example.com",
		"from":    "alerts@example.com",
		"to":      "ops@example.com",
		"subject": "{{.trigger_data.symbol}} price alert",
		"body":    "Price is now {{.trigger_data.price}}",
	}
}

func TestNewHandler_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{"missing host", "host"},
		{"missing from", "from"},
		{"missing to", "to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := emailConfig()
			delete(config, tt.missing)

			_, err := NewHandler(&models.Node{ID: "e1", Config: config})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestNewHandler_RecipientList(t *testing.T) {
	config := emailConfig()
	config["to"] = []any{"a@example.com", "b@example.com"}

	handler, err := NewHandler(&models.Node{ID: "e1", Config: config})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, handler.config.To)
}

func TestExecute_RendersAndDelivers(t *testing.T) {
	var delivered *mail.Msg

	sender := func(_ context.Context, msg *mail.Msg) error {
		delivered = msg

		return nil
	}

	handler, err := NewHandlerWithSender(&models.Node{ID: "e1", Config: emailConfig()}, sender)
	require.NoError(t, err)

	output, err := handler.Execute(t.Context(), execContext())
	require.NoError(t, err)

	require.NotNil(t, delivered)
	assert.Equal(t, []string{"SEI price alert"}, delivered.GetGenHeader(mail.HeaderSubject))

	recipients, err := delivered.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, recipients)

	parts := delivered.GetParts()
	require.Len(t, parts, 1)

	content, err := parts[0].GetContent()
	require.NoError(t, err)
	assert.Equal(t, "Price is now 1.25", string(content))

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["delivered"])
	assert.Equal(t, "SEI price alert", result["subject"])
}

func TestExecute_SenderFailureFailsNode(t *testing.T) {
	sender := func(context.Context, *mail.Msg) error {
		return assert.AnError
	}

	handler, err := NewHandlerWithSender(&models.Node{ID: "e1", Config: emailConfig()}, sender)
	require.NoError(t, err)

	_, err = handler.Execute(t.Context(), execContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
}

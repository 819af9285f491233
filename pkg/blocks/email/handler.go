// Package email implements the email block: subject and body are templated
// against the execution context and delivered over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// Sender delivers one message. The default sender speaks SMTP through
// go-mail; tests swap in a recorder.
type Sender func(ctx context.Context, msg *mail.Msg) error

// Config defines the configuration for email nodes.
type Config struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	From     string   `json:"from"`
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
}

// Handler executes email nodes.
type Handler struct {
	nodeID string
	config Config
	send   Sender
}

// NewHandler creates an email handler from node configuration.
func NewHandler(node *models.Node) (*Handler, error) {
	config := Config{Port: 587}

	host, ok := node.Config["host"].(string)
	if !ok || host == "" {
		return nil, errors.New("missing required field 'host'")
	}

	config.Host = host

	if port, ok := node.Config["port"].(float64); ok && port > 0 {
		config.Port = int(port)
	}

	from, ok := node.Config["from"].(string)
	if !ok || from == "" {
		return nil, errors.New("missing required field 'from'")
	}

	config.From = from

	switch to := node.Config["to"].(type) {
	case string:
		config.To = []string{to}
	case []any:
		for _, recipient := range to {
			if addr, ok := recipient.(string); ok {
				config.To = append(config.To, addr)
			}
		}
	}

	if len(config.To) == 0 {
		return nil, errors.New("missing required field 'to'")
	}

	if subject, ok := node.Config["subject"].(string); ok {
		config.Subject = subject
	}

	if body, ok := node.Config["body"].(string); ok {
		config.Body = body
	}

	if username, ok := node.Config["username"].(string); ok {
		config.Username = username
	}

	if password, ok := node.Config["password"].(string); ok {
		config.Password = password
	}

	handler := &Handler{nodeID: node.ID, config: config}
	handler.send = handler.sendSMTP

	return handler, nil
}

// NewHandlerWithSender creates a handler using a custom sender. Used by tests.
func NewHandlerWithSender(node *models.Node, send Sender) (*Handler, error) {
	handler, err := NewHandler(node)
	if err != nil {
		return nil, err
	}

	handler.send = send

	return handler, nil
}

// Execute renders subject and body, then delivers the message.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	data := blocks.TemplateData(execCtx)

	subject, err := template.RenderString(h.config.Subject, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render email subject: %w", err)
	}

	body, err := template.RenderString(h.config.Body, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render email body: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(h.config.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	if err := msg.To(h.config.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := h.send(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	return map[string]any{
		"delivered": true,
		"to":        h.config.To,
		"subject":   subject,
	}, nil
}

func (h *Handler) sendSMTP(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(h.config.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	if h.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(h.config.Username),
			mail.WithPassword(h.config.Password),
		)
	}

	client, err := mail.NewClient(h.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to build SMTP client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

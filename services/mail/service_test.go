package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/krishimitra/api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type MockMailClient struct {
	sendFunc func(msg *mail.Msg) error
	sent     []*mail.Msg
}

func (m *MockMailClient) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	m.sent = append(m.sent, messages...)
	if m.sendFunc != nil {
		return m.sendFunc(messages[0])
	}
	return nil
}

func getTestMailConfig() *config.MailConfig {
	return &config.MailConfig{
		Host:        "localhost",
		Port:        587,
		Username:    "mailer@krishimitra.test",
		Password:    "smtp-pass",
		Encryption:  "starttls",
		FromAddress: "noreply@krishimitra.test",
		FromName:    "KrishiMitra",
	}
}

func newTestService(t *testing.T, client Client) *Service {
	t.Helper()
	service, err := NewServiceWithClient(getTestMailConfig(), nil, client)
	require.NoError(t, err)
	return service
}

func renderMessage(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestNewService(t *testing.T) {
	t.Run("valid configuration with mock client", func(t *testing.T) {
		mockClient := &MockMailClient{}

		service := newTestService(t, mockClient)

		assert.Equal(t, mockClient, service.client)
		assert.NotNil(t, service.htmlTemplates)
		assert.NotNil(t, service.textTemplates)
	})

	t.Run("missing from address", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.FromAddress = ""

		service, err := NewServiceWithClient(cfg, nil, &MockMailClient{})

		require.Error(t, err)
		assert.Nil(t, service)
		assert.Contains(t, err.Error(), "MAIL_FROM_ADDRESS is required")
	})

	t.Run("creates real client without dialing", func(t *testing.T) {
		service, err := NewService(getTestMailConfig(), nil)

		require.NoError(t, err)
		assert.NotNil(t, service.client)
	})

	t.Run("empty host is rejected", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.Host = ""

		service, err := NewService(cfg, nil)

		require.Error(t, err)
		assert.Nil(t, service)
	})
}

func TestService_EmbeddedTemplates(t *testing.T) {
	service := newTestService(t, &MockMailClient{})

	for _, name := range []string{TemplateEmailVerification, TemplatePasswordReset} {
		assert.NotNil(t, service.htmlTemplates.Lookup(name+".html"), name)
		assert.NotNil(t, service.textTemplates.Lookup(name+".txt"), name)
	}
}

func TestService_SendTemplate(t *testing.T) {
	data := map[string]any{
		"AppName":          "KrishiMitra",
		"Name":             "Sita",
		"Code":             "482913",
		"ExpiresInMinutes": 10,
	}

	t.Run("renders both parts and sends", func(t *testing.T) {
		mockClient := &MockMailClient{}
		service := newTestService(t, mockClient)

		err := service.SendTemplate(context.Background(), TemplateEmailVerification,
			[]string{"sita@example.com"}, "Verify Your Email - KrishiMitra", data)

		require.NoError(t, err)
		require.Len(t, mockClient.sent, 1)

		raw := renderMessage(t, mockClient.sent[0])
		assert.Contains(t, raw, "482913")
		assert.Contains(t, raw, "Verify Your Email - KrishiMitra")
		assert.Contains(t, raw, "text/html")
		assert.Contains(t, raw, "text/plain")
		assert.Contains(t, raw, "noreply@krishimitra.test")
	})

	t.Run("template not found", func(t *testing.T) {
		mockClient := &MockMailClient{}
		service := newTestService(t, mockClient)

		err := service.SendTemplate(context.Background(), "nonexistent",
			[]string{"sita@example.com"}, "Subject", data)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "template 'nonexistent' not found")
		assert.Empty(t, mockClient.sent)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		mockClient := &MockMailClient{}
		service := newTestService(t, mockClient)

		err := service.SendTemplate(context.Background(), TemplatePasswordReset,
			[]string{"invalid-email"}, "Subject", data)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set TO addresses")
		assert.Empty(t, mockClient.sent)
	})

	t.Run("delivery failure is wrapped", func(t *testing.T) {
		mockClient := &MockMailClient{
			sendFunc: func(msg *mail.Msg) error { return assert.AnError },
		}
		service := newTestService(t, mockClient)

		err := service.SendTemplate(context.Background(), TemplatePasswordReset,
			[]string{"sita@example.com"}, "Password Reset OTP - KrishiMitra", data)

		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to send email")
	})
}

func TestService_NewMessage(t *testing.T) {
	t.Run("with from name", func(t *testing.T) {
		service := newTestService(t, &MockMailClient{})

		msg, err := service.NewMessage()

		require.NoError(t, err)
		from := msg.GetFrom()
		require.Len(t, from, 1)
		assert.Equal(t, "KrishiMitra", from[0].Name)
	})

	t.Run("invalid from address", func(t *testing.T) {
		service := newTestService(t, &MockMailClient{})
		service.config.FromAddress = "not an address"

		msg, err := service.NewMessage()

		assert.Nil(t, msg)
		assert.Error(t, err)
	})
}

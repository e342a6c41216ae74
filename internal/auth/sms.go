package auth

import (
	"context"
	"strings"

	"expiry-backend/internal/shared/telemetry"
)

// Sender delivers a text message to a normalized mobile number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// LogSender writes messages to the structured log instead of sending them.
// Used in local development where no SMS provider is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, message string) error {
	telemetry.Info("sms.logged", map[string]any{
		"to":      to,
		"message": message,
	})
	return nil
}

var providerConfigHints = []string{"credential", "not configured", "missing region"}

// classifyProviderError maps a sender failure to ErrProviderNotConfigured when
// its text points at missing setup, otherwise to ErrProvider.
func classifyProviderError(err error) error {
	text := strings.ToLower(err.Error())
	for _, hint := range providerConfigHints {
		if strings.Contains(text, hint) {
			return ErrProviderNotConfigured
		}
	}
	return ErrProvider
}

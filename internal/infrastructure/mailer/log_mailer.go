// Package mailer dispatches verification codes and reset links.
package mailer

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"
)

// LogMailer writes outgoing codes and reset links to the log instead of
// sending mail. It backs development and the demo deployment.
type LogMailer struct {
	resetURL string
	log      zerolog.Logger
}

// NewLogMailer builds reset links against resetURL, e.g.
// "http://localhost:8080/reset-password".
func NewLogMailer(resetURL string, log zerolog.Logger) *LogMailer {
	return &LogMailer{resetURL: resetURL, log: log.With().Str("component", "mailer").Logger()}
}

func (m *LogMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.log.Info().Str("to", email).Str("code", code).Msg("verification code dispatched")
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.log.Info().Str("to", email).Str("link", m.ResetLink(token)).Msg("password reset dispatched")
	return nil
}

// ResetLink is the page a reset email points at, carrying the token as a query parameter.
func (m *LogMailer) ResetLink(token string) string {
	u, err := url.Parse(m.resetURL)
	if err != nil {
		return m.resetURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

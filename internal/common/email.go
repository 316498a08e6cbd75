package common

import (
	"context"

	"github.com/rs/zerolog"
)

// EmailSender delivers transactional email.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// Email is a single outgoing message.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records messages instead of sending them.
type InMemoryEmail struct {
	Outbox []Email
}

// Send appends msg to the outbox.
func (m *InMemoryEmail) Send(_ context.Context, msg Email) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, msg)
	return nil
}

// NopEmailSender drops every message.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(context.Context, Email) error { return nil }

// LogEmailSender logs messages instead of sending them.
type LogEmailSender struct {
	Logger *zerolog.Logger
}

// Send implements EmailSender.
func (s LogEmailSender) Send(_ context.Context, msg Email) error {
	if s.Logger != nil {
		s.Logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email queued")
	}
	return nil
}

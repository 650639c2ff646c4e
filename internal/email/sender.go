package email

import (
	"context"
	"errors"
)

// Sender envia los correos transaccionales de la app.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, username string) error
}

var ErrSenderDisabled = errors.New("email sender disabled")

type disabledSender struct {
	reason string
}

// NewDisabledSender se usa cuando no hay SMTP configurado; todo envio falla.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendWelcome(_ context.Context, _ string, _ string) error {
	if s.reason == "" {
		return ErrSenderDisabled
	}
	return errors.Join(ErrSenderDisabled, errors.New(s.reason))
}

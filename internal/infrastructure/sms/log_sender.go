// Package sms entrega de códigos de verificación.
package sms

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
)

var _ ports.SMSSender = (*LogSender)(nil)

// LogSender escribe el código en el log en lugar de enviarlo. Solo para desarrollo.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender construye el sender.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "sms").Logger()}
}

func (s *LogSender) SendCode(_ context.Context, phone, code string) error {
	s.log.Info().Str("phone", phone).Str("code", code).Msg("código de verificación (no enviado)")
	return nil
}

package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/dto"
	"github.com/jhoicas/agromarket-api/internal/domain"
)

// errorMapping error de dominio -> estado HTTP y código de respuesta. El orden importa:
// el primer sentinel que coincide gana.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrAlreadyBound, fiber.StatusBadRequest, "ALREADY_BOUND"},
	{domain.ErrAlreadyHasFarmer, fiber.StatusBadRequest, "ALREADY_HAS_FARMER"},
	{domain.ErrNoPasswordSet, fiber.StatusBadRequest, "NO_PASSWORD_SET"},
	{domain.ErrInvalidOrExpiredCode, fiber.StatusBadRequest, "INVALID_CODE"},
	{domain.ErrInvalidCredential, fiber.StatusBadRequest, "INVALID_CREDENTIAL"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDuplicate, fiber.StatusBadRequest, "DUPLICATE"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// writeError traduce err a la respuesta HTTP. Los fallos no tipados se registran y se
// responden con un mensaje genérico.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación no terminó a tiempo"})
	}
	log.Error().Err(err).
		Str("request_id", requestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func validation(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}

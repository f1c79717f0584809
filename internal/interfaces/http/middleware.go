package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
)

// RequestID asigna X-Request-ID (uuid) si el cliente no lo envía.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// CORS solo los orígenes configurados; sin orígenes no se añade ninguna cabecera CORS.
func CORS(allowed []string) fiber.Handler {
	if len(allowed) == 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowed, ","),
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		AllowCredentials: true,
		MaxAge:           600,
	})
}

// RequestLogger registra cada petición y la observa en las métricas (m puede ser nil).
// La ruta en métricas es el patrón registrado para no disparar la cardinalidad.
func RequestLogger(log zerolog.Logger, m *metrics.Metrics) fiber.Handler {
	log = log.With().Str("component", "http").Logger()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler escriba la respuesta antes de leer el estado.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		latency := time.Since(start)
		route := c.Route().Path
		m.ObserveHTTP(c.Method(), route, status, latency)

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", latency).
			Msg("petición")
		return nil
	}
}

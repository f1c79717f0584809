package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	"github.com/jhoicas/agromarket-api/internal/application/account"
	"github.com/jhoicas/agromarket-api/internal/application/auth"
	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/application/dto"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.UseCase
	AccountUC *account.UseCase
	Engine    *binding.Engine
	JWTSecret string
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
	// Ping comprueba el almacén para /health; nil = siempre ok.
	Ping func(ctx context.Context) error
}

// AppConfig opciones del servidor Fiber.
type AppConfig struct {
	Name           string
	AllowedOrigins []string
}

// NewApp crea la aplicación Fiber con recover, request id, CORS y registro de peticiones.
func NewApp(cfg AppConfig, log zerolog.Logger, m *metrics.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
			}
			return writeError(c, log, err)
		},
	})
	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(RequestLogger(log, m))
	app.Use(CORS(cfg.AllowedOrigins))
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "documentación no registrada")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.SendString(doc)
	})

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	authGroup.Post("/password-login", authHandler.PasswordLogin)
	authGroup.Post("/phone-login", authHandler.PhoneLogin)
	authGroup.Post("/sms-code", authHandler.SMSCode)
	authGroup.Post("/wx-login", authHandler.WxLogin)

	// Administración: Bearer token con rol admin u operator
	admin := api.Group("/admin", AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin, entity.RoleOperator))
	adminHandler := NewAdminHandler(deps.AccountUC, deps.Engine, deps.Log)
	admin.Post("/create-user", adminHandler.CreateUser)
	admin.Post("/create-operator", adminHandler.CreateOperator)
	admin.Post("/create-farmer", adminHandler.CreateFarmer)
	admin.Post("/provision-farmer", adminHandler.ProvisionFarmer)
	admin.Post("/set-operator", adminHandler.SetOperator)
	admin.Post("/set-farmer", adminHandler.SetFarmer)
	admin.Post("/update-farmer-user", adminHandler.UpdateFarmerUser)
	admin.Delete("/users/roles/:roleId", adminHandler.RevokeRole)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Patch("/users/:id", adminHandler.UpdateUser)
	admin.Get("/farmers", adminHandler.ListFarmers)

	// Conceder admin solo lo puede hacer otro admin.
	admin.Post("/set-admin", RequireRole(entity.RoleAdmin), adminHandler.SetAdmin)
}

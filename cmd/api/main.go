// @title           AgroMarket Admin API
// @version         1.0
// @description     Cuentas, roles y vínculos agricultor-usuario del marketplace.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"

	_ "github.com/jhoicas/agromarket-api/docs"
	"github.com/jhoicas/agromarket-api/internal/application/account"
	"github.com/jhoicas/agromarket-api/internal/application/auth"
	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/security"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/sms"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/store"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/wechat"
	httpRouter "github.com/jhoicas/agromarket-api/internal/interfaces/http"
	"github.com/jhoicas/agromarket-api/pkg/config"
	"github.com/jhoicas/agromarket-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("config", cfg.String()).
		Msg("iniciando aplicación")

	ctx := context.Background()
	m := metrics.New()

	st, err := store.Open(ctx, cfg, m, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.DataBackend).Msg("abrir almacén")
	}
	defer st.Close()

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	engine := binding.NewEngine(st.Repos, st.Tx, st.Locker, log.Zerolog())
	accountUC := account.NewUseCase(st.Repos, st.Tx, st.Locker, hasher, log.Zerolog())
	authUC := auth.NewUseCase(auth.Deps{
		Repos:  st.Repos,
		Tx:     st.Tx,
		Locker: st.Locker,
		Hasher: hasher,
		Tokens: security.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration),
		Codes:  st.Codes,
		Phones: wechat.NewClient(wechat.Config{AppID: cfg.WeChat.AppID, AppSecret: cfg.WeChat.AppSecret, BaseURL: cfg.WeChat.BaseURL}, log.Zerolog()),
		SMS:    sms.NewLogSender(log.Zerolog()),
	}, auth.Config{CodeTTL: cfg.Auth.CodeTTL, CodeLength: cfg.Auth.CodeLength}, log.Zerolog())

	if cfg.Auth.AdminPhone != "" {
		boot := log.Component("bootstrap")
		password := cfg.Auth.AdminPassword
		acc, err := accountUC.ProvisionAccount(ctx, account.ProvisionInput{
			Phone:    cfg.Auth.AdminPhone,
			Password: &password,
			RoleType: entity.RoleAdmin,
			ByAdmin:  true,
		})
		if err != nil {
			boot.Fatal().Err(err).Msg("aprovisionar administrador inicial")
		}
		boot.Info().Int64("user_id", acc.User.ID).Msg("administrador inicial listo")
	}

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:           cfg.App.Name,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, log.Zerolog(), m)

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "AgroMarket Admin API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger UI deshabilitado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		AccountUC: accountUC,
		Engine:    engine,
		JWTSecret: cfg.JWT.Secret,
		Metrics:   m,
		Log:       log.Zerolog(),
		Ping:      st.Ping,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

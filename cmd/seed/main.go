// seed carga los datos de demostración (usuarios, roles, agricultores, catálogo y carritos) en el
// backend configurado. Es idempotente: cada paso inserta solo lo que falta.
//
// Uso: go run ./cmd/seed [-schema]
// -schema crea las tablas antes de cargar (solo DATA_BACKEND=postgres).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/application/seed"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/postgres"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/store"
	"github.com/jhoicas/agromarket-api/pkg/config"
	"github.com/jhoicas/agromarket-api/pkg/logger"
)

func main() {
	withSchema := flag.Bool("schema", false, "crear el esquema PostgreSQL antes de cargar")
	timeout := flag.Duration("timeout", 2*time.Minute, "tiempo máximo de la carga")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, cfg, *withSchema, log); err != nil {
		log.Error().Err(err).Msg("carga semilla fallida")
		cancel()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, withSchema bool, log *logger.Logger) error {
	if withSchema {
		if cfg.Store.DataBackend != config.BackendPostgres {
			return fmt.Errorf("-schema requiere DATA_BACKEND=postgres (actual %q)", cfg.Store.DataBackend)
		}
		pool, err := postgres.NewPool(ctx, cfg.DB, log.Zerolog())
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		err = postgres.EnsureSchema(ctx, pool)
		pool.Close()
		if err != nil {
			return err
		}
		log.Info().Msg("esquema listo")
	}

	st, err := store.Open(ctx, cfg, metrics.New(), log.Zerolog())
	if err != nil {
		return err
	}
	defer st.Close()

	engine := binding.NewEngine(st.Repos, st.Tx, st.Locker, log.Zerolog())
	summary, err := seed.NewLoader(st.Repos, engine, log.Zerolog()).Run(ctx)
	if err != nil {
		return err
	}
	for _, row := range []struct {
		name string
		step seed.Step
	}{
		{"users", summary.Users},
		{"user_roles", summary.Roles},
		{"farmers", summary.Farmers},
		{"categories", summary.Categories},
		{"origins", summary.Origins},
		{"batches", summary.Batches},
		{"batch_media_files", summary.MediaFiles},
		{"products", summary.Products},
		{"carts", summary.Carts},
	} {
		log.Info().Str("table", row.name).Int("existing", row.step.Existing).Int("inserted", row.step.Inserted).Msg("seed")
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/agromarket-api/internal/domain/repository"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

// NewTxRunner construye el runner con el pool. m puede ser nil.
func NewTxRunner(pool *pgxpool.Pool, m *metrics.Metrics) *TxRunner {
	return &TxRunner{pool: pool, metrics: m}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveStore("postgres", "tx", time.Since(start), err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos construye todos los repositorios sobre q (pool o transacción).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Users:   NewUserRepository(q),
		Roles:   NewRoleRepository(q),
		Farmers: NewFarmerRepository(q),
		Catalog: NewCatalogRepository(q),
	}
}

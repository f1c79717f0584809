package hasura

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner Hasura no ofrece transacciones entre peticiones: fn corre sobre los repositorios
// normales y los pasos ya aplicados persisten si un paso posterior falla.
type TxRunner struct {
	repos repository.Repos
}

// NewTxRunner construye el runner.
func NewTxRunner(repos repository.Repos) *TxRunner {
	return &TxRunner{repos: repos}
}

func (t *TxRunner) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t.repos)
}

// NewRepos construye todos los repositorios sobre el mismo cliente.
func NewRepos(c *Client) repository.Repos {
	return repository.Repos{
		Users:   NewUserRepository(c),
		Roles:   NewRoleRepository(c),
		Farmers: NewFarmerRepository(c),
		Catalog: NewCatalogRepository(c),
	}
}

package repository

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

// CatalogRepository puerto para los datos de referencia y comercio usados por la carga semilla.
// Los Create* en bloque completan el ID de cada elemento.
type CatalogRepository interface {
	CategoriesByNames(ctx context.Context, names []string) ([]*entity.Category, error)
	CreateCategories(ctx context.Context, categories []*entity.Category) error

	OriginsByNames(ctx context.Context, names []string) ([]*entity.Origin, error)
	CreateOrigins(ctx context.Context, origins []*entity.Origin) error

	BatchesByFarmers(ctx context.Context, farmerIDs []int64, limit int) ([]*entity.Batch, error)
	CreateBatches(ctx context.Context, batches []*entity.Batch) error

	MediaFilesByBatch(ctx context.Context, batchID int64) ([]*entity.BatchMediaFile, error)
	CreateMediaFiles(ctx context.Context, files []*entity.BatchMediaFile) error

	ProductsByBatches(ctx context.Context, batchIDs []int64) ([]*entity.Product, error)
	CreateProducts(ctx context.Context, products []*entity.Product) error

	CartsByUsers(ctx context.Context, userIDs []int64) ([]*entity.Cart, error)
	// CreateCarts devuelve ErrDuplicate si algún (usuario, producto) ya existe.
	CreateCarts(ctx context.Context, carts []*entity.Cart) error
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo datos de catálogo usados por la siembra (categorías, orígenes, lotes, productos, carritos).
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

func (r *CatalogRepo) CategoriesByNames(ctx context.Context, names []string) ([]*entity.Category, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM categories WHERE name = ANY($1) ORDER BY id`, names)
	if err != nil {
		return nil, domain.WrapQuery("list categories", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Category, error) {
		var c entity.Category
		return &c, row.Scan(&c.ID, &c.Name)
	})
	return list, domain.WrapQuery("list categories", err)
}

func (r *CatalogRepo) CreateCategories(ctx context.Context, categories []*entity.Category) error {
	args := make([]any, 0, len(categories))
	for _, c := range categories {
		args = append(args, c.Name)
	}
	return r.insert(ctx, "insert categories", "categories", []string{"name"}, args, len(categories), func(i int, id int64) {
		categories[i].ID = id
	})
}

func (r *CatalogRepo) OriginsByNames(ctx context.Context, names []string) ([]*entity.Origin, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, category_name FROM origins WHERE name = ANY($1) ORDER BY id`, names)
	if err != nil {
		return nil, domain.WrapQuery("list origins", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Origin, error) {
		var o entity.Origin
		return &o, row.Scan(&o.ID, &o.Name, &o.CategoryName)
	})
	return list, domain.WrapQuery("list origins", err)
}

func (r *CatalogRepo) CreateOrigins(ctx context.Context, origins []*entity.Origin) error {
	args := make([]any, 0, 2*len(origins))
	for _, o := range origins {
		args = append(args, o.Name, o.CategoryName)
	}
	return r.insert(ctx, "insert origins", "origins", []string{"name", "category_name"}, args, len(origins), func(i int, id int64) {
		origins[i].ID = id
	})
}

func (r *CatalogRepo) BatchesByFarmers(ctx context.Context, farmerIDs []int64, limit int) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, `SELECT id, farmer_farmers, image_url FROM batches
		WHERE farmer_farmers = ANY($1) ORDER BY id LIMIT $2`, farmerIDs, nullLimit(limit))
	if err != nil {
		return nil, domain.WrapQuery("list batches", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Batch, error) {
		var b entity.Batch
		return &b, row.Scan(&b.ID, &b.FarmerID, &b.ImageURL)
	})
	return list, domain.WrapQuery("list batches", err)
}

func (r *CatalogRepo) CreateBatches(ctx context.Context, batches []*entity.Batch) error {
	args := make([]any, 0, 2*len(batches))
	for _, b := range batches {
		args = append(args, b.FarmerID, b.ImageURL)
	}
	return r.insert(ctx, "insert batches", "batches", []string{"farmer_farmers", "image_url"}, args, len(batches), func(i int, id int64) {
		batches[i].ID = id
	})
}

func (r *CatalogRepo) MediaFilesByBatch(ctx context.Context, batchID int64) ([]*entity.BatchMediaFile, error) {
	rows, err := r.q.Query(ctx, `SELECT id, batch_batches, file_type, file_url, media_category
		FROM batch_media_files WHERE batch_batches = $1 ORDER BY id`, batchID)
	if err != nil {
		return nil, domain.WrapQuery("list media files", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.BatchMediaFile, error) {
		var m entity.BatchMediaFile
		return &m, row.Scan(&m.ID, &m.BatchID, &m.FileType, &m.FileURL, &m.MediaCategory)
	})
	return list, domain.WrapQuery("list media files", err)
}

func (r *CatalogRepo) CreateMediaFiles(ctx context.Context, files []*entity.BatchMediaFile) error {
	args := make([]any, 0, 4*len(files))
	for _, f := range files {
		args = append(args, f.BatchID, f.FileType, f.FileURL, f.MediaCategory)
	}
	cols := []string{"batch_batches", "file_type", "file_url", "media_category"}
	return r.insert(ctx, "insert media files", "batch_media_files", cols, args, len(files), func(i int, id int64) {
		files[i].ID = id
	})
}

func (r *CatalogRepo) ProductsByBatches(ctx context.Context, batchIDs []int64) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT id, batch_batches, category_categories, origin_origins, name, image_url,
		unit_price, unit_stock, unit, sales FROM products WHERE batch_batches = ANY($1) ORDER BY id`, batchIDs)
	if err != nil {
		return nil, domain.WrapQuery("list products", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Product, error) {
		var p entity.Product
		return &p, row.Scan(&p.ID, &p.BatchID, &p.CategoryID, &p.OriginID, &p.Name, &p.ImageURL,
			&p.UnitPrice, &p.UnitStock, &p.Unit, &p.Sales)
	})
	return list, domain.WrapQuery("list products", err)
}

func (r *CatalogRepo) CreateProducts(ctx context.Context, products []*entity.Product) error {
	args := make([]any, 0, 9*len(products))
	for _, p := range products {
		args = append(args, p.BatchID, p.CategoryID, p.OriginID, p.Name, p.ImageURL,
			p.UnitPrice, p.UnitStock, p.Unit, p.Sales)
	}
	cols := []string{"batch_batches", "category_categories", "origin_origins", "name", "image_url",
		"unit_price", "unit_stock", "unit", "sales"}
	return r.insert(ctx, "insert products", "products", cols, args, len(products), func(i int, id int64) {
		products[i].ID = id
	})
}

func (r *CatalogRepo) CartsByUsers(ctx context.Context, userIDs []int64) ([]*entity.Cart, error) {
	rows, err := r.q.Query(ctx, `SELECT id, user_users, product_products, quantity, is_selected
		FROM carts WHERE user_users = ANY($1) ORDER BY id`, userIDs)
	if err != nil {
		return nil, domain.WrapQuery("list carts", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Cart, error) {
		var c entity.Cart
		return &c, row.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Quantity, &c.IsSelected)
	})
	return list, domain.WrapQuery("list carts", err)
}

func (r *CatalogRepo) CreateCarts(ctx context.Context, carts []*entity.Cart) error {
	args := make([]any, 0, 4*len(carts))
	for _, c := range carts {
		args = append(args, c.UserID, c.ProductID, c.Quantity, c.IsSelected)
	}
	cols := []string{"user_users", "product_products", "quantity", "is_selected"}
	return r.insert(ctx, "insert carts", "carts", cols, args, len(carts), func(i int, id int64) {
		carts[i].ID = id
	})
}

// insert inserta n filas en un solo statement; una violación de unicidad es domain.ErrDuplicate
// y no deja filas parciales.
func (r *CatalogRepo) insert(ctx context.Context, op, table string, cols []string, args []any, n int, assign func(i int, id int64)) error {
	if n == 0 {
		return nil
	}
	ids, err := insertReturningIDs(ctx, r.q, insertValues(table, cols, n), args)
	switch {
	case err != nil && isUniqueViolation(err):
		return domain.ErrDuplicate
	case err != nil:
		return domain.WrapQuery(op, err)
	}
	for i, id := range ids {
		assign(i, id)
	}
	return nil
}

package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*catalogRepo)(nil)

type catalogRepo struct{ s *view }

func (r *catalogRepo) CategoriesByNames(ctx context.Context, names []string) ([]*entity.Category, error) {
	var out []*entity.Category
	r.s.read(func(t *tables) {
		out = ordered(t.categories, func(v entity.Category) bool { return slices.Contains(names, v.Name) })
	})
	return out, ctx.Err()
}

func (r *catalogRepo) CreateCategories(ctx context.Context, categories []*entity.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		for _, c := range categories {
			for _, v := range t.categories {
				if v.Name == c.Name {
					return domain.ErrDuplicate
				}
			}
			c.ID = t.nextID()
			t.categories[c.ID] = *c
		}
		return nil
	})
}

func (r *catalogRepo) OriginsByNames(ctx context.Context, names []string) ([]*entity.Origin, error) {
	var out []*entity.Origin
	r.s.read(func(t *tables) {
		out = ordered(t.origins, func(v entity.Origin) bool { return slices.Contains(names, v.Name) })
	})
	return out, ctx.Err()
}

func (r *catalogRepo) CreateOrigins(ctx context.Context, origins []*entity.Origin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		for _, o := range origins {
			for _, v := range t.origins {
				if v.Name == o.Name {
					return domain.ErrDuplicate
				}
			}
			o.ID = t.nextID()
			t.origins[o.ID] = *o
		}
		return nil
	})
}

func (r *catalogRepo) BatchesByFarmers(ctx context.Context, farmerIDs []int64, limit int) ([]*entity.Batch, error) {
	var out []*entity.Batch
	r.s.read(func(t *tables) {
		out = page(ordered(t.batches, func(v entity.Batch) bool { return slices.Contains(farmerIDs, v.FarmerID) }), limit, 0)
	})
	return out, ctx.Err()
}

func (r *catalogRepo) CreateBatches(ctx context.Context, batches []*entity.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		for _, b := range batches {
			if _, ok := t.farmers[b.FarmerID]; !ok {
				return domain.NotFound("farmer", b.FarmerID)
			}
			b.ID = t.nextID()
			t.batches[b.ID] = *b
		}
		return nil
	})
}

func (r *catalogRepo) MediaFilesByBatch(ctx context.Context, batchID int64) ([]*entity.BatchMediaFile, error) {
	var out []*entity.BatchMediaFile
	r.s.read(func(t *tables) {
		out = ordered(t.media, func(v entity.BatchMediaFile) bool { return v.BatchID == batchID })
	})
	return out, ctx.Err()
}

func (r *catalogRepo) CreateMediaFiles(ctx context.Context, files []*entity.BatchMediaFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		for _, f := range files {
			if _, ok := t.batches[f.BatchID]; !ok {
				return domain.NotFound("batch", f.BatchID)
			}
			f.ID = t.nextID()
			t.media[f.ID] = *f
		}
		return nil
	})
}

func (r *catalogRepo) ProductsByBatches(ctx context.Context, batchIDs []int64) ([]*entity.Product, error) {
	var out []*entity.Product
	r.s.read(func(t *tables) {
		out = ordered(t.products, func(v entity.Product) bool { return slices.Contains(batchIDs, v.BatchID) })
	})
	return out, ctx.Err()
}

func (r *catalogRepo) CreateProducts(ctx context.Context, products []*entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		for _, p := range products {
			if _, ok := t.batches[p.BatchID]; !ok {
				return domain.NotFound("batch", p.BatchID)
			}
			for _, v := range t.products {
				if v.BatchID == p.BatchID {
					return domain.ErrDuplicate
				}
			}
			p.ID = t.nextID()
			t.products[p.ID] = *p
		}
		return nil
	})
}

func (r *catalogRepo) CartsByUsers(ctx context.Context, userIDs []int64) ([]*entity.Cart, error) {
	var out []*entity.Cart
	r.s.read(func(t *tables) {
		out = ordered(t.carts, func(v entity.Cart) bool { return slices.Contains(userIDs, v.UserID) })
	})
	return out, ctx.Err()
}

func (r *catalogRepo) CreateCarts(ctx context.Context, carts []*entity.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		for _, c := range carts {
			for _, v := range t.carts {
				if v.UserID == c.UserID && v.ProductID == c.ProductID {
					return domain.ErrDuplicate
				}
			}
			c.ID = t.nextID()
			t.carts[c.ID] = *c
		}
		return nil
	})
}

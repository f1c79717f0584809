package hasura

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo adaptador de CatalogRepository sobre Hasura. Los inserts en bloque usan returning
// para completar los IDs en el mismo orden de entrada.
type CatalogRepo struct {
	c *Client
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(c *Client) *CatalogRepo {
	return &CatalogRepo{c: c}
}

const qCategoriesByNames = `query CategoriesByNames($names: [String!]!) {
  categories(where: {name: {_in: $names}}, order_by: {id: asc}) { id name }
}`

func (r *CatalogRepo) CategoriesByNames(ctx context.Context, names []string) ([]*entity.Category, error) {
	var out struct {
		Rows []categoryRow `json:"categories"`
	}
	if err := r.c.Execute(ctx, qCategoriesByNames, map[string]interface{}{"names": names}, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.Category, 0, len(out.Rows))
	for _, row := range out.Rows {
		list = append(list, &entity.Category{ID: int64(row.ID), Name: row.Name})
	}
	return list, nil
}

const mInsertCategories = `mutation InsertCategories($objects: [categories_insert_input!]!) {
  insert_categories(objects: $objects) { affected_rows returning { id } }
}`

func (r *CatalogRepo) CreateCategories(ctx context.Context, categories []*entity.Category) error {
	objects := make([]map[string]interface{}, len(categories))
	for i, c := range categories {
		objects[i] = map[string]interface{}{"name": c.Name}
	}
	ids, err := r.insert(ctx, mInsertCategories, "insert_categories", objects)
	if err != nil {
		return err
	}
	for i, c := range categories {
		c.ID = ids[i]
	}
	return nil
}

const qOriginsByNames = `query OriginsByNames($names: [String!]!) {
  origins(where: {name: {_in: $names}}, order_by: {id: asc}) { id name category_name }
}`

func (r *CatalogRepo) OriginsByNames(ctx context.Context, names []string) ([]*entity.Origin, error) {
	var out struct {
		Rows []originRow `json:"origins"`
	}
	if err := r.c.Execute(ctx, qOriginsByNames, map[string]interface{}{"names": names}, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.Origin, 0, len(out.Rows))
	for _, row := range out.Rows {
		list = append(list, &entity.Origin{ID: int64(row.ID), Name: row.Name, CategoryName: row.CategoryName})
	}
	return list, nil
}

const mInsertOrigins = `mutation InsertOrigins($objects: [origins_insert_input!]!) {
  insert_origins(objects: $objects) { affected_rows returning { id } }
}`

func (r *CatalogRepo) CreateOrigins(ctx context.Context, origins []*entity.Origin) error {
	objects := make([]map[string]interface{}, len(origins))
	for i, o := range origins {
		objects[i] = map[string]interface{}{"name": o.Name, "category_name": o.CategoryName}
	}
	ids, err := r.insert(ctx, mInsertOrigins, "insert_origins", objects)
	if err != nil {
		return err
	}
	for i, o := range origins {
		o.ID = ids[i]
	}
	return nil
}

const qBatchesByFarmers = `query BatchesByFarmers($farmers: [bigint!]!, $limit: Int) {
  batches(where: {farmer_farmers: {_in: $farmers}}, limit: $limit, order_by: {id: asc}) { id farmer_farmers image_url }
}`

func (r *CatalogRepo) BatchesByFarmers(ctx context.Context, farmerIDs []int64, limit int) ([]*entity.Batch, error) {
	vars := map[string]interface{}{"farmers": farmerIDs}
	if limit > 0 {
		vars["limit"] = limit
	}
	var out struct {
		Rows []batchRow `json:"batches"`
	}
	if err := r.c.Execute(ctx, qBatchesByFarmers, vars, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.Batch, 0, len(out.Rows))
	for _, row := range out.Rows {
		list = append(list, &entity.Batch{ID: int64(row.ID), FarmerID: int64(row.FarmerID), ImageURL: row.ImageURL})
	}
	return list, nil
}

const mInsertBatches = `mutation InsertBatches($objects: [batches_insert_input!]!) {
  insert_batches(objects: $objects) { affected_rows returning { id } }
}`

func (r *CatalogRepo) CreateBatches(ctx context.Context, batches []*entity.Batch) error {
	objects := make([]map[string]interface{}, len(batches))
	for i, b := range batches {
		objects[i] = map[string]interface{}{"farmer_farmers": b.FarmerID, "image_url": b.ImageURL}
	}
	ids, err := r.insert(ctx, mInsertBatches, "insert_batches", objects)
	if err != nil {
		return err
	}
	for i, b := range batches {
		b.ID = ids[i]
	}
	return nil
}

const qMediaByBatch = `query MediaByBatch($batch: bigint!) {
  batch_media_files(where: {batch_batches: {_eq: $batch}}, order_by: {id: asc}) {
    id batch_batches file_type file_url media_category
  }
}`

func (r *CatalogRepo) MediaFilesByBatch(ctx context.Context, batchID int64) ([]*entity.BatchMediaFile, error) {
	var out struct {
		Rows []mediaRow `json:"batch_media_files"`
	}
	if err := r.c.Execute(ctx, qMediaByBatch, map[string]interface{}{"batch": batchID}, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.BatchMediaFile, 0, len(out.Rows))
	for _, row := range out.Rows {
		list = append(list, &entity.BatchMediaFile{
			ID: int64(row.ID), BatchID: int64(row.BatchID), FileType: row.FileType,
			FileURL: row.FileURL, MediaCategory: row.MediaCategory,
		})
	}
	return list, nil
}

const mInsertMedia = `mutation InsertMediaFiles($objects: [batch_media_files_insert_input!]!) {
  insert_batch_media_files(objects: $objects) { affected_rows returning { id } }
}`

func (r *CatalogRepo) CreateMediaFiles(ctx context.Context, files []*entity.BatchMediaFile) error {
	objects := make([]map[string]interface{}, len(files))
	for i, f := range files {
		objects[i] = map[string]interface{}{
			"batch_batches": f.BatchID, "file_type": f.FileType,
			"file_url": f.FileURL, "media_category": f.MediaCategory,
		}
	}
	ids, err := r.insert(ctx, mInsertMedia, "insert_batch_media_files", objects)
	if err != nil {
		return err
	}
	for i, f := range files {
		f.ID = ids[i]
	}
	return nil
}

const qProductsByBatches = `query ProductsByBatches($batches: [bigint!]!) {
  products(where: {batch_batches: {_in: $batches}}, order_by: {id: asc}) {
    id batch_batches category_categories origin_origins name image_url unit_price unit_stock unit sales
  }
}`

func (r *CatalogRepo) ProductsByBatches(ctx context.Context, batchIDs []int64) ([]*entity.Product, error) {
	var out struct {
		Rows []productRow `json:"products"`
	}
	if err := r.c.Execute(ctx, qProductsByBatches, map[string]interface{}{"batches": batchIDs}, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.Product, 0, len(out.Rows))
	for _, row := range out.Rows {
		list = append(list, &entity.Product{
			ID: int64(row.ID), BatchID: int64(row.BatchID),
			CategoryID: optID(row.CategoryID), OriginID: optID(row.OriginID),
			Name: row.Name, ImageURL: row.ImageURL, UnitPrice: row.UnitPrice,
			UnitStock: row.UnitStock, Unit: row.Unit, Sales: row.Sales,
		})
	}
	return list, nil
}

const mInsertProducts = `mutation InsertProducts($objects: [products_insert_input!]!) {
  insert_products(objects: $objects) { affected_rows returning { id } }
}`

func (r *CatalogRepo) CreateProducts(ctx context.Context, products []*entity.Product) error {
	objects := make([]map[string]interface{}, len(products))
	for i, p := range products {
		objects[i] = map[string]interface{}{
			"batch_batches":       p.BatchID,
			"category_categories": p.CategoryID,
			"origin_origins":      p.OriginID,
			"name":                p.Name,
			"image_url":           p.ImageURL,
			"unit_price":          p.UnitPrice,
			"unit_stock":          p.UnitStock,
			"unit":                p.Unit,
			"sales":               p.Sales,
		}
	}
	ids, err := r.insert(ctx, mInsertProducts, "insert_products", objects)
	if err != nil {
		return err
	}
	for i, p := range products {
		p.ID = ids[i]
	}
	return nil
}

const qCartsByUsers = `query CartsByUsers($users: [bigint!]!) {
  carts(where: {user_users: {_in: $users}}, order_by: {id: asc}) {
    id user_users product_products quantity is_selected
  }
}`

func (r *CatalogRepo) CartsByUsers(ctx context.Context, userIDs []int64) ([]*entity.Cart, error) {
	var out struct {
		Rows []cartRow `json:"carts"`
	}
	if err := r.c.Execute(ctx, qCartsByUsers, map[string]interface{}{"users": userIDs}, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.Cart, 0, len(out.Rows))
	for _, row := range out.Rows {
		list = append(list, &entity.Cart{
			ID: int64(row.ID), UserID: int64(row.UserID), ProductID: int64(row.ProductID),
			Quantity: row.Quantity, IsSelected: row.IsSelected,
		})
	}
	return list, nil
}

const mInsertCarts = `mutation InsertCarts($objects: [carts_insert_input!]!) {
  insert_carts(objects: $objects) { affected_rows returning { id } }
}`

func (r *CatalogRepo) CreateCarts(ctx context.Context, carts []*entity.Cart) error {
	objects := make([]map[string]interface{}, len(carts))
	for i, c := range carts {
		objects[i] = map[string]interface{}{
			"user_users": c.UserID, "product_products": c.ProductID,
			"quantity": c.Quantity, "is_selected": c.IsSelected,
		}
	}
	ids, err := r.insert(ctx, mInsertCarts, "insert_carts", objects)
	if err != nil {
		return err
	}
	for i, c := range carts {
		c.ID = ids[i]
	}
	return nil
}

// insert ejecuta un insert en bloque y devuelve los ids de returning.
func (r *CatalogRepo) insert(ctx context.Context, doc, field string, objects []map[string]interface{}) ([]int64, error) {
	if len(objects) == 0 {
		return nil, nil
	}
	var out map[string]returning[idRow]
	if err := r.c.Execute(ctx, doc, map[string]interface{}{"objects": objects}, &out); err != nil {
		return nil, err
	}
	rows := out[field].Returning
	ids := make([]int64, len(objects))
	for i := range ids {
		if i < len(rows) {
			ids[i] = int64(rows[i].ID)
		}
	}
	return ids, nil
}

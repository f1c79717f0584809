// Package seed carga idempotente de datos de demostración.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

// Step resultado de un paso: filas ya presentes e insertadas.
type Step struct {
	Existing int
	Inserted int
}

// Summary resultado de Run por entidad.
type Summary struct {
	Users      Step
	Roles      Step
	Farmers    Step
	Categories Step
	Origins    Step
	Batches    Step
	MediaFiles Step
	Products   Step
	Carts      Step
}

// Loader ejecuta la carga semilla. Cada paso consulta por clave natural, inserta solo lo que falta
// y reordena el conjunto según la lista semilla para que los pasos siguientes sean deterministas.
type Loader struct {
	repos  repository.Repos
	engine *binding.Engine
	log    zerolog.Logger
}

// NewLoader construye el cargador.
func NewLoader(repos repository.Repos, engine *binding.Engine, log zerolog.Logger) *Loader {
	return &Loader{repos: repos, engine: engine, log: log.With().Str("component", "seed").Logger()}
}

// Run ejecuta todos los pasos en orden. Un fallo detiene la carga; lo ya insertado se conserva
// y una nueva ejecución continúa desde ahí.
func (l *Loader) Run(ctx context.Context) (*Summary, error) {
	var s Summary
	users, err := l.users(ctx, &s.Users)
	if err != nil {
		return nil, fmt.Errorf("usuarios: %w", err)
	}
	if err := l.roles(ctx, users, &s.Roles); err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}
	farmers, err := l.farmers(ctx, users, &s.Farmers)
	if err != nil {
		return nil, fmt.Errorf("agricultores: %w", err)
	}
	categories, err := l.categories(ctx, &s.Categories)
	if err != nil {
		return nil, fmt.Errorf("categorías: %w", err)
	}
	origins, err := l.origins(ctx, &s.Origins)
	if err != nil {
		return nil, fmt.Errorf("orígenes: %w", err)
	}
	batches, err := l.batches(ctx, farmers, &s.Batches)
	if err != nil {
		return nil, fmt.Errorf("lotes: %w", err)
	}
	if err := l.media(ctx, batches[0], &s.MediaFiles); err != nil {
		return nil, fmt.Errorf("medios: %w", err)
	}
	products, err := l.products(ctx, batches, categories, origins, &s.Products)
	if err != nil {
		return nil, fmt.Errorf("productos: %w", err)
	}
	if err := l.carts(ctx, users, products, &s.Carts); err != nil {
		return nil, fmt.Errorf("carritos: %w", err)
	}
	l.log.Info().Interface("summary", s).Msg("carga semilla completada")
	return &s, nil
}

func (l *Loader) users(ctx context.Context, st *Step) ([]int64, error) {
	phones := make([]string, len(seedUsers))
	for i, u := range seedUsers {
		phones[i] = u.Phone
	}
	existing, err := l.engine.FindExistingByNaturalKeys(ctx, binding.KindUser, phones)
	if err != nil {
		return nil, err
	}
	st.Existing = len(existing)
	ids := make([]int64, len(seedUsers))
	for i, su := range seedUsers {
		if id, ok := existing[su.Phone]; ok {
			ids[i] = id
			continue
		}
		nickname := su.Nickname
		u := &entity.User{Phone: su.Phone, Nickname: &nickname}
		if err := l.repos.Users.Create(ctx, u); err != nil {
			return nil, domain.WrapQuery("insertar usuario", err)
		}
		ids[i] = u.ID
		st.Inserted++
	}
	return ids, nil
}

func (l *Loader) roles(ctx context.Context, users []int64, st *Step) error {
	for _, sr := range seedRoles {
		uid := users[sr.User]
		before, err := l.engine.FindRoles(ctx, uid, sr.RoleType)
		if err != nil {
			return err
		}
		if len(before) > 0 {
			st.Existing++
			continue
		}
		if _, err := l.engine.GrantRole(ctx, uid, sr.RoleType); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				l.log.Warn().Int64("user_id", uid).Str("role_type", sr.RoleType).Msg("rol ya presente")
				st.Existing++
				continue
			}
			return err
		}
		st.Inserted++
	}
	return nil
}

func (l *Loader) farmers(ctx context.Context, users []int64, st *Step) ([]int64, error) {
	ids := make([]int64, len(seedFarmers))
	for i, sf := range seedFarmers {
		uid := users[sf.User]
		owned, err := l.repos.Farmers.ListByUser(ctx, uid)
		if err != nil {
			return nil, domain.WrapQuery("listar agricultores", err)
		}
		if len(owned) > 0 {
			ids[i] = owned[0].ID
			st.Existing++
			continue
		}
		name := sf.Name
		f, err := l.engine.CreateFarmerProfile(ctx, &name, &uid)
		if err != nil {
			return nil, err
		}
		ids[i] = f.ID
		st.Inserted++
	}
	return ids, nil
}

func (l *Loader) categories(ctx context.Context, st *Step) ([]int64, error) {
	existing, err := l.engine.FindExistingByNaturalKeys(ctx, binding.KindCategory, seedCategories)
	if err != nil {
		return nil, err
	}
	st.Existing = len(existing)
	var missing []*entity.Category
	for _, name := range seedCategories {
		if _, ok := existing[name]; !ok {
			missing = append(missing, &entity.Category{Name: name})
		}
	}
	if len(missing) > 0 {
		if err := l.repos.Catalog.CreateCategories(ctx, missing); err != nil {
			return nil, domain.WrapQuery("insertar categorías", err)
		}
		for _, c := range missing {
			existing[c.Name] = c.ID
		}
		st.Inserted = len(missing)
	}
	ids := make([]int64, len(seedCategories))
	for i, name := range seedCategories {
		ids[i] = existing[name]
	}
	return ids, nil
}

func (l *Loader) origins(ctx context.Context, st *Step) ([]int64, error) {
	names := make([]string, len(seedOrigins))
	for i, o := range seedOrigins {
		names[i] = o.Name
	}
	existing, err := l.engine.FindExistingByNaturalKeys(ctx, binding.KindOrigin, names)
	if err != nil {
		return nil, err
	}
	st.Existing = len(existing)
	var missing []*entity.Origin
	for _, o := range seedOrigins {
		if _, ok := existing[o.Name]; !ok {
			missing = append(missing, &o)
		}
	}
	if len(missing) > 0 {
		if err := l.repos.Catalog.CreateOrigins(ctx, missing); err != nil {
			return nil, domain.WrapQuery("insertar orígenes", err)
		}
		for _, o := range missing {
			existing[o.Name] = o.ID
		}
		st.Inserted = len(missing)
	}
	ids := make([]int64, len(names))
	for i, name := range names {
		ids[i] = existing[name]
	}
	return ids, nil
}

func (l *Loader) batches(ctx context.Context, farmers []int64, st *Step) ([]*entity.Batch, error) {
	batches, err := l.repos.Catalog.BatchesByFarmers(ctx, farmers, batchQueryLimit)
	if err != nil {
		return nil, domain.WrapQuery("listar lotes", err)
	}
	st.Existing = len(batches)
	if len(batches) < batchCount {
		need := batchCount - len(batches)
		fresh := make([]*entity.Batch, 0, need)
		for i := 0; i < need; i++ {
			fresh = append(fresh, &entity.Batch{
				FarmerID: farmers[i%len(farmers)],
				ImageURL: batchImageURL(len(batches) + i + 1),
			})
		}
		if err := l.repos.Catalog.CreateBatches(ctx, fresh); err != nil {
			return nil, domain.WrapQuery("insertar lotes", err)
		}
		batches = append(batches, fresh...)
		st.Inserted = need
	}
	return batches[:batchCount], nil
}

func (l *Loader) media(ctx context.Context, batch *entity.Batch, st *Step) error {
	present, err := l.repos.Catalog.MediaFilesByBatch(ctx, batch.ID)
	if err != nil {
		return domain.WrapQuery("listar medios", err)
	}
	have := make(map[string]bool, len(present))
	for _, m := range present {
		have[m.MediaCategory] = true
	}
	st.Existing = len(present)
	var missing []*entity.BatchMediaFile
	for _, sm := range seedMedia {
		if have[sm.Category] {
			continue
		}
		missing = append(missing, &entity.BatchMediaFile{
			BatchID:       batch.ID,
			FileType:      entity.MediaTypeVideo,
			FileURL:       mediaURL(sm.Label),
			MediaCategory: sm.Category,
		})
	}
	if len(missing) == 0 {
		return nil
	}
	if err := l.repos.Catalog.CreateMediaFiles(ctx, missing); err != nil {
		return domain.WrapQuery("insertar medios", err)
	}
	st.Inserted = len(missing)
	return nil
}

func (l *Loader) products(ctx context.Context, batches []*entity.Batch, categories, origins []int64, st *Step) ([]int64, error) {
	batchIDs := make([]int64, len(batches))
	for i, b := range batches {
		batchIDs[i] = b.ID
	}
	present, err := l.repos.Catalog.ProductsByBatches(ctx, batchIDs)
	if err != nil {
		return nil, domain.WrapQuery("listar productos", err)
	}
	byBatch := make(map[int64]int64, len(present))
	for _, p := range present {
		byBatch[p.BatchID] = p.ID
	}
	st.Existing = len(present)

	var missing []*entity.Product
	for i, b := range batches {
		if _, ok := byBatch[b.ID]; ok {
			continue
		}
		sp := seedProducts[i]
		missing = append(missing, &entity.Product{
			BatchID:    b.ID,
			CategoryID: &categories[i],
			OriginID:   &origins[i],
			Name:       sp.Name,
			ImageURL:   productImageURL(seedCategories[i]),
			UnitPrice:  sp.Price,
			UnitStock:  sp.Stock,
			Unit:       sp.Unit,
			Sales:      sp.Sales,
		})
	}
	if len(missing) > 0 {
		if err := l.repos.Catalog.CreateProducts(ctx, missing); err != nil {
			return nil, domain.WrapQuery("insertar productos", err)
		}
		for _, p := range missing {
			byBatch[p.BatchID] = p.ID
		}
		st.Inserted = len(missing)
	}
	ids := make([]int64, len(batches))
	for i, b := range batches {
		ids[i] = byBatch[b.ID]
	}
	return ids, nil
}

func (l *Loader) carts(ctx context.Context, users, products []int64, st *Step) error {
	customers := []int64{users[idxCustom1], users[idxCustom2]}
	present, err := l.repos.Catalog.CartsByUsers(ctx, customers)
	if err != nil {
		return domain.WrapQuery("listar carritos", err)
	}
	type key struct{ user, product int64 }
	have := make(map[key]bool, len(present))
	for _, c := range present {
		have[key{c.UserID, c.ProductID}] = true
	}
	for _, sc := range seedCarts {
		k := key{users[sc.User], products[sc.Product]}
		if have[k] {
			st.Existing++
			continue
		}
		cart := &entity.Cart{UserID: k.user, ProductID: k.product, Quantity: sc.Quantity, IsSelected: sc.Selected}
		if err := l.repos.Catalog.CreateCarts(ctx, []*entity.Cart{cart}); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				l.log.Warn().Int64("user_id", k.user).Int64("product_id", k.product).Msg("carrito ya presente")
				st.Existing++
				continue
			}
			return domain.WrapQuery("insertar carrito", err)
		}
		st.Inserted++
	}
	return nil
}

package binding

import (
	"context"
	"fmt"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

// NaturalKind tipo de registro con clave natural consultable en bloque.
type NaturalKind string

const (
	KindUser     NaturalKind = "user"     // phone
	KindCategory NaturalKind = "category" // name
	KindOrigin   NaturalKind = "origin"   // name
)

// UserByPhoneTx resuelve el usuario por teléfono o devuelve NotFound("user", phone).
func UserByPhoneTx(ctx context.Context, r repository.Repos, phone string) (*entity.User, error) {
	u, err := r.Users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, domain.WrapQuery("buscar usuario por teléfono", err)
	}
	if u == nil {
		return nil, domain.NotFound("user", phone)
	}
	return u, nil
}

// UserByIDTx resuelve el usuario por id o devuelve NotFound("user", id).
func UserByIDTx(ctx context.Context, r repository.Repos, id int64) (*entity.User, error) {
	u, err := r.Users.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapQuery("buscar usuario", err)
	}
	if u == nil {
		return nil, domain.NotFound("user", id)
	}
	return u, nil
}

// FarmerByIDTx resuelve el agricultor por id o devuelve NotFound("farmer", id).
func FarmerByIDTx(ctx context.Context, r repository.Repos, id int64) (*entity.Farmer, error) {
	f, err := r.Farmers.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapQuery("buscar agricultor", err)
	}
	if f == nil {
		return nil, domain.NotFound("farmer", id)
	}
	return f, nil
}

// AccountTx carga roles y agricultor vinculado del usuario.
func AccountTx(ctx context.Context, r repository.Repos, u *entity.User) (*entity.Account, error) {
	roles, err := r.Roles.ListByUser(ctx, u.ID, "")
	if err != nil {
		return nil, domain.WrapQuery("listar roles", err)
	}
	farmers, err := r.Farmers.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, domain.WrapQuery("listar agricultores", err)
	}
	var farmer *entity.Farmer
	if len(farmers) > 0 {
		farmer = farmers[0]
	}
	return entity.NewAccount(u, roles, farmer), nil
}

// FindUserByPhone resuelve un usuario por teléfono.
func (e *Engine) FindUserByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return UserByPhoneTx(ctx, e.repos, phone)
}

// FindUserByID resuelve un usuario por id.
func (e *Engine) FindUserByID(ctx context.Context, id int64) (*entity.User, error) {
	return UserByIDTx(ctx, e.repos, id)
}

// FindFarmerByID resuelve un agricultor por id.
func (e *Engine) FindFarmerByID(ctx context.Context, id int64) (*entity.Farmer, error) {
	return FarmerByIDTx(ctx, e.repos, id)
}

// FindRoles lista los roles del usuario; roleType vacío = todos. El orden no es significativo.
func (e *Engine) FindRoles(ctx context.Context, userID int64, roleType string) ([]*entity.Role, error) {
	roles, err := e.repos.Roles.ListByUser(ctx, userID, roleType)
	return roles, domain.WrapQuery("listar roles", err)
}

// FindExistingByNaturalKeys devuelve clave natural -> id de los registros ya presentes.
func (e *Engine) FindExistingByNaturalKeys(ctx context.Context, kind NaturalKind, keys []string) (map[string]int64, error) {
	return ExistingByNaturalKeysTx(ctx, e.repos, kind, keys)
}

// ExistingByNaturalKeysTx variante de FindExistingByNaturalKeys sobre repos ya atados a una unidad de trabajo.
func ExistingByNaturalKeysTx(ctx context.Context, r repository.Repos, kind NaturalKind, keys []string) (map[string]int64, error) {
	out := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	switch kind {
	case KindUser:
		list, err := r.Users.ListByPhones(ctx, keys)
		if err != nil {
			return nil, domain.WrapQuery("buscar usuarios por teléfono", err)
		}
		for _, u := range list {
			out[u.Phone] = u.ID
		}
	case KindCategory:
		list, err := r.Catalog.CategoriesByNames(ctx, keys)
		if err != nil {
			return nil, domain.WrapQuery("buscar categorías", err)
		}
		for _, c := range list {
			out[c.Name] = c.ID
		}
	case KindOrigin:
		list, err := r.Catalog.OriginsByNames(ctx, keys)
		if err != nil {
			return nil, domain.WrapQuery("buscar orígenes", err)
		}
		for _, o := range list {
			out[o.Name] = o.ID
		}
	default:
		return nil, fmt.Errorf("%w: tipo de clave natural %q", domain.ErrInvalidInput, kind)
	}
	return out, nil
}

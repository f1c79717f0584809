package repository

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Las búsquedas devuelven (nil, nil) cuando no hay fila.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	ListByPhones(ctx context.Context, phones []string) ([]*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	// Create inserta el usuario y completa ID y timestamps. ErrDuplicate si el teléfono existe.
	Create(ctx context.Context, user *entity.User) error
	// CreateAccount inserta usuario + rol (+ agricultor vinculado si farmer != nil) en una sola escritura anidada.
	CreateAccount(ctx context.Context, user *entity.User, roleType string, farmer *entity.Farmer) error
	Update(ctx context.Context, id int64, patch entity.UserPatch) (*entity.User, error)
}

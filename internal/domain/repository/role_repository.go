package repository

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

// RoleRepository puerto de persistencia para user_roles.
type RoleRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Role, error)
	// ListByUser lista los roles del usuario; roleType vacío = todos.
	ListByUser(ctx context.Context, userID int64, roleType string) ([]*entity.Role, error)
	ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Role, error)
	// Create devuelve ErrDuplicate si ya existe (userID, roleType).
	Create(ctx context.Context, userID int64, roleType string) (*entity.Role, error)
	// Delete devuelve false si la fila no existía.
	Delete(ctx context.Context, id int64) (bool, error)
}

package repository

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

// FarmerRepository puerto de persistencia para farmers.
type FarmerRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Farmer, error)
	ListByUser(ctx context.Context, userID int64) ([]*entity.Farmer, error)
	ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Farmer, error)
	List(ctx context.Context, onlyUnbound bool, limit, offset int) ([]*entity.Farmer, error)
	// Create inserta y completa ID. ErrDuplicate si farmer.UserID ya tiene un agricultor.
	Create(ctx context.Context, farmer *entity.Farmer) error
	SetUser(ctx context.Context, farmerID, userID int64) error
	// UnbindUser pone user_users = null en todos los agricultores del usuario y devuelve las filas afectadas.
	UnbindUser(ctx context.Context, userID int64) (int64, error)
	UpdateName(ctx context.Context, farmerID int64, name *string) error
}

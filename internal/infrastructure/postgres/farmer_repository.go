package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.FarmerRepository = (*FarmerRepo)(nil)

// FarmerRepo implementación de FarmerRepository. farmers_user_users_key garantiza un agricultor por usuario.
type FarmerRepo struct {
	q Querier
}

// NewFarmerRepository construye el adaptador.
func NewFarmerRepository(q Querier) *FarmerRepo {
	return &FarmerRepo{q: q}
}

const farmerColumns = `id, user_users, name`

func scanFarmer(row pgx.Row) (*entity.Farmer, error) {
	var f entity.Farmer
	if err := row.Scan(&f.ID, &f.UserID, &f.Name); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FarmerRepo) GetByID(ctx context.Context, id int64) (*entity.Farmer, error) {
	f, err := scanFarmer(r.q.QueryRow(ctx, `SELECT `+farmerColumns+` FROM farmers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return f, domain.WrapQuery("get farmer", err)
}

func (r *FarmerRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.Farmer, error) {
	return r.list(ctx, `SELECT `+farmerColumns+` FROM farmers WHERE user_users = $1 ORDER BY id`, userID)
}

func (r *FarmerRepo) ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Farmer, error) {
	return r.list(ctx, `SELECT `+farmerColumns+` FROM farmers WHERE user_users = ANY($1) ORDER BY id`, userIDs)
}

func (r *FarmerRepo) List(ctx context.Context, onlyUnbound bool, limit, offset int) ([]*entity.Farmer, error) {
	return r.list(ctx, `SELECT `+farmerColumns+` FROM farmers
		WHERE NOT $1 OR user_users IS NULL ORDER BY id LIMIT $2 OFFSET $3`, onlyUnbound, nullLimit(limit), offset)
}

func (r *FarmerRepo) list(ctx context.Context, sql string, args ...any) ([]*entity.Farmer, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.WrapQuery("list farmers", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Farmer, error) {
		return scanFarmer(row)
	})
	return list, domain.WrapQuery("list farmers", err)
}

// Create domain.ErrDuplicate si el usuario ya tiene agricultor.
func (r *FarmerRepo) Create(ctx context.Context, farmer *entity.Farmer) error {
	query := `INSERT INTO farmers (user_users, name) VALUES ($1, $2)
		ON CONFLICT DO NOTHING RETURNING ` + farmerColumns
	f, err := scanFarmer(r.q.QueryRow(ctx, query, farmer.UserID, farmer.Name))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrDuplicate
	case err != nil && isForeignKeyViolation(err):
		return domain.NotFound("user", *farmer.UserID)
	case err != nil:
		return domain.WrapQuery("insert farmer", err)
	}
	*farmer = *f
	return nil
}

func (r *FarmerRepo) SetUser(ctx context.Context, farmerID, userID int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE farmers SET user_users = $2 WHERE id = $1`, farmerID, userID)
	switch {
	case err != nil && isUniqueViolation(err):
		return domain.ErrDuplicate
	case err != nil && isForeignKeyViolation(err):
		return domain.NotFound("user", userID)
	case err != nil:
		return domain.WrapQuery("set farmer user", err)
	case tag.RowsAffected() == 0:
		return domain.NotFound("farmer", farmerID)
	}
	return nil
}

// UnbindUser desvincula todos los agricultores del usuario y devuelve cuántos había.
func (r *FarmerRepo) UnbindUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `UPDATE farmers SET user_users = NULL WHERE user_users = $1`, userID)
	if err != nil {
		return 0, domain.WrapQuery("unbind farmers", err)
	}
	return tag.RowsAffected(), nil
}

func (r *FarmerRepo) UpdateName(ctx context.Context, farmerID int64, name *string) error {
	tag, err := r.q.Exec(ctx, `UPDATE farmers SET name = $2 WHERE id = $1`, farmerID, name)
	if err != nil {
		return domain.WrapQuery("rename farmer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("farmer", farmerID)
	}
	return nil
}

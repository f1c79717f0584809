package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo implementación de RoleRepository sobre la tabla user_roles.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador.
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

const roleColumns = `id, user_users, role_type`

func scanRole(row pgx.Row) (*entity.Role, error) {
	var ro entity.Role
	if err := row.Scan(&ro.ID, &ro.UserID, &ro.RoleType); err != nil {
		return nil, err
	}
	return &ro, nil
}

func (r *RoleRepo) GetByID(ctx context.Context, id int64) (*entity.Role, error) {
	ro, err := scanRole(r.q.QueryRow(ctx, `SELECT `+roleColumns+` FROM user_roles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ro, domain.WrapQuery("get role", err)
}

// ListByUser roleType vacío devuelve todos los roles del usuario.
func (r *RoleRepo) ListByUser(ctx context.Context, userID int64, roleType string) ([]*entity.Role, error) {
	return r.list(ctx, `SELECT `+roleColumns+` FROM user_roles
		WHERE user_users = $1 AND ($2 = '' OR role_type = $2) ORDER BY id`, userID, roleType)
}

func (r *RoleRepo) ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Role, error) {
	return r.list(ctx, `SELECT `+roleColumns+` FROM user_roles WHERE user_users = ANY($1) ORDER BY id`, userIDs)
}

func (r *RoleRepo) list(ctx context.Context, sql string, args ...any) ([]*entity.Role, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.WrapQuery("list roles", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Role, error) {
		return scanRole(row)
	})
	return list, domain.WrapQuery("list roles", err)
}

// Create ON CONFLICT DO NOTHING no aborta la transacción: un par repetido devuelve domain.ErrDuplicate.
func (r *RoleRepo) Create(ctx context.Context, userID int64, roleType string) (*entity.Role, error) {
	query := `
		INSERT INTO user_roles (user_users, role_type) VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT user_roles_user_users_role_type_key DO NOTHING
		RETURNING ` + roleColumns
	ro, err := scanRole(r.q.QueryRow(ctx, query, userID, roleType))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, domain.ErrDuplicate
	case err != nil && isForeignKeyViolation(err):
		return nil, domain.NotFound("user", userID)
	}
	return ro, domain.WrapQuery("insert role", err)
}

func (r *RoleRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE id = $1`, id)
	if err != nil {
		return false, domain.WrapQuery("delete role", err)
	}
	return tag.RowsAffected() > 0, nil
}

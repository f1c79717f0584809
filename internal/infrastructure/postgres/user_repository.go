package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, phone, nickname, avatar_url, password, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Phone, &u.Nickname, &u.AvatarURL, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID obtiene un usuario por ID; (nil, nil) si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, domain.WrapQuery("get user by id", err)
}

// GetByPhone obtiene un usuario por teléfono; (nil, nil) si no existe.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, domain.WrapQuery("get user by phone", err)
}

func (r *UserRepo) ListByPhones(ctx context.Context, phones []string) ([]*entity.User, error) {
	return r.list(ctx, "list users by phones",
		`SELECT `+userColumns+` FROM users WHERE phone = ANY($1) ORDER BY id`, phones)
}

// List pagina por id; limit <= 0 sin límite.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	return r.list(ctx, "list users",
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, nullLimit(limit), offset)
}

func (r *UserRepo) list(ctx context.Context, op, sql string, args ...any) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.WrapQuery(op, err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.User, error) {
		return scanUser(row)
	})
	return list, domain.WrapQuery(op, err)
}

// Create persiste un nuevo usuario; domain.ErrDuplicate si el teléfono ya existe.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	return r.insert(ctx, r.q, user)
}

func (r *UserRepo) insert(ctx context.Context, q Querier, user *entity.User) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO users (phone, nickname, avatar_url, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT DO NOTHING
		RETURNING ` + userColumns
	u, err := scanUser(q.QueryRow(ctx, query, user.Phone, user.Nickname, user.AvatarURL, user.Password, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return domain.WrapQuery("insert user", err)
	}
	*user = *u
	return nil
}

// CreateAccount inserta usuario, rol y (opcional) agricultor en una sola transacción o savepoint.
func (r *UserRepo) CreateAccount(ctx context.Context, user *entity.User, roleType string, farmer *entity.Farmer) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return domain.WrapQuery("begin create account", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.insert(ctx, tx, user); err != nil {
		return err
	}
	if _, err := NewRoleRepository(tx).Create(ctx, user.ID, roleType); err != nil {
		return err
	}
	if farmer != nil {
		farmer.UserID = &user.ID
		if err := NewFarmerRepository(tx).Create(ctx, farmer); err != nil {
			return err
		}
	}
	return domain.WrapQuery("commit create account", tx.Commit(ctx))
}

// Update aplica patch y actualiza updated_at.
func (r *UserRepo) Update(ctx context.Context, id int64, patch entity.UserPatch) (*entity.User, error) {
	query := `
		UPDATE users SET
			nickname = COALESCE($2, nickname),
			password = COALESCE($3, password),
			updated_at = $4
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.q.QueryRow(ctx, query, id, patch.Nickname, patch.Password, time.Now().UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("user", id)
	}
	return u, domain.WrapQuery("update user", err)
}

// nullLimit traduce limit <= 0 a NULL (LIMIT NULL = sin límite).
func nullLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

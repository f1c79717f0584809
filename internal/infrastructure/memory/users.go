package memory

import (
	"context"
	"slices"
	"time"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ s *view }

func (r *userRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var out *entity.User
	r.s.read(func(t *tables) {
		if u, ok := t.users[id]; ok {
			out = &u
		}
	})
	return out, ctx.Err()
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	var out *entity.User
	r.s.read(func(t *tables) {
		list := ordered(t.users, func(u entity.User) bool { return u.Phone == phone })
		if len(list) > 0 {
			out = list[0]
		}
	})
	return out, ctx.Err()
}

func (r *userRepo) ListByPhones(ctx context.Context, phones []string) ([]*entity.User, error) {
	var out []*entity.User
	r.s.read(func(t *tables) {
		out = ordered(t.users, func(u entity.User) bool { return slices.Contains(phones, u.Phone) })
	})
	return out, ctx.Err()
}

func (r *userRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	r.s.read(func(t *tables) {
		out = page(ordered(t.users, nil), limit, offset)
	})
	return out, ctx.Err()
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		return insertUser(t, user, r.s.now())
	})
}

func (r *userRepo) CreateAccount(ctx context.Context, user *entity.User, roleType string, farmer *entity.Farmer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Escritura anidada: o entran las tres filas o ninguna.
	return r.s.write(func(t *tables) error {
		if err := insertUser(t, user, r.s.now()); err != nil {
			return err
		}
		role := entity.Role{ID: t.nextID(), UserID: user.ID, RoleType: roleType}
		t.roles[role.ID] = role
		if farmer != nil {
			farmer.ID = t.nextID()
			farmer.UserID = ptr(user.ID)
			t.farmers[farmer.ID] = *farmer
		}
		return nil
	})
}

func (r *userRepo) Update(ctx context.Context, id int64, patch entity.UserPatch) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *entity.User
	err := r.s.write(func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return domain.NotFound("user", id)
		}
		if patch.Nickname != nil {
			u.Nickname = ptr(*patch.Nickname)
		}
		if patch.Password != nil {
			u.Password = ptr(*patch.Password)
		}
		u.UpdatedAt = r.s.now()
		t.users[id] = u
		out = &u
		return nil
	})
	return out, err
}

func insertUser(t *tables, user *entity.User, now time.Time) error {
	for _, u := range t.users {
		if u.Phone == user.Phone {
			return domain.ErrDuplicate
		}
	}
	user.ID = t.nextID()
	user.CreatedAt = now
	user.UpdatedAt = now
	t.users[user.ID] = *user
	return nil
}

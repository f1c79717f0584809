package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*roleRepo)(nil)

type roleRepo struct{ s *view }

func (r *roleRepo) GetByID(ctx context.Context, id int64) (*entity.Role, error) {
	var out *entity.Role
	r.s.read(func(t *tables) {
		if v, ok := t.roles[id]; ok {
			out = &v
		}
	})
	return out, ctx.Err()
}

func (r *roleRepo) ListByUser(ctx context.Context, userID int64, roleType string) ([]*entity.Role, error) {
	var out []*entity.Role
	r.s.read(func(t *tables) {
		out = ordered(t.roles, func(v entity.Role) bool {
			return v.UserID == userID && (roleType == "" || v.RoleType == roleType)
		})
	})
	return out, ctx.Err()
}

func (r *roleRepo) ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Role, error) {
	var out []*entity.Role
	r.s.read(func(t *tables) {
		out = ordered(t.roles, func(v entity.Role) bool { return slices.Contains(userIDs, v.UserID) })
	})
	return out, ctx.Err()
}

func (r *roleRepo) Create(ctx context.Context, userID int64, roleType string) (*entity.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *entity.Role
	err := r.s.write(func(t *tables) error {
		if _, ok := t.users[userID]; !ok {
			return domain.NotFound("user", userID)
		}
		for _, v := range t.roles {
			if v.UserID == userID && v.RoleType == roleType {
				return domain.ErrDuplicate
			}
		}
		role := entity.Role{ID: t.nextID(), UserID: userID, RoleType: roleType}
		t.roles[role.ID] = role
		out = &role
		return nil
	})
	return out, err
}

func (r *roleRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var deleted bool
	_ = r.s.write(func(t *tables) error {
		_, deleted = t.roles[id]
		delete(t.roles, id)
		return nil
	})
	return deleted, nil
}

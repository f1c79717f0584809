package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.FarmerRepository = (*farmerRepo)(nil)

type farmerRepo struct{ s *view }

func (r *farmerRepo) GetByID(ctx context.Context, id int64) (*entity.Farmer, error) {
	var out *entity.Farmer
	r.s.read(func(t *tables) {
		if v, ok := t.farmers[id]; ok {
			out = &v
		}
	})
	return out, ctx.Err()
}

func (r *farmerRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.Farmer, error) {
	var out []*entity.Farmer
	r.s.read(func(t *tables) {
		out = ordered(t.farmers, func(v entity.Farmer) bool { return v.BoundTo(userID) })
	})
	return out, ctx.Err()
}

func (r *farmerRepo) ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Farmer, error) {
	var out []*entity.Farmer
	r.s.read(func(t *tables) {
		out = ordered(t.farmers, func(v entity.Farmer) bool {
			return v.UserID != nil && slices.Contains(userIDs, *v.UserID)
		})
	})
	return out, ctx.Err()
}

func (r *farmerRepo) List(ctx context.Context, onlyUnbound bool, limit, offset int) ([]*entity.Farmer, error) {
	var out []*entity.Farmer
	r.s.read(func(t *tables) {
		out = page(ordered(t.farmers, func(v entity.Farmer) bool { return !onlyUnbound || !v.IsBound() }), limit, offset)
	})
	return out, ctx.Err()
}

func (r *farmerRepo) Create(ctx context.Context, farmer *entity.Farmer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		if farmer.UserID != nil {
			if err := checkUserFree(t, *farmer.UserID, 0); err != nil {
				return err
			}
		}
		farmer.ID = t.nextID()
		t.farmers[farmer.ID] = *farmer
		return nil
	})
}

func (r *farmerRepo) SetUser(ctx context.Context, farmerID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		f, ok := t.farmers[farmerID]
		if !ok {
			return domain.NotFound("farmer", farmerID)
		}
		if err := checkUserFree(t, userID, farmerID); err != nil {
			return err
		}
		f.UserID = ptr(userID)
		t.farmers[farmerID] = f
		return nil
	})
}

func (r *farmerRepo) UnbindUser(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	_ = r.s.write(func(t *tables) error {
		for id, f := range t.farmers {
			if f.BoundTo(userID) {
				f.UserID = nil
				t.farmers[id] = f
				n++
			}
		}
		return nil
	})
	return n, nil
}

func (r *farmerRepo) UpdateName(ctx context.Context, farmerID int64, name *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.write(func(t *tables) error {
		f, ok := t.farmers[farmerID]
		if !ok {
			return domain.NotFound("farmer", farmerID)
		}
		if name == nil {
			f.Name = nil
		} else {
			f.Name = ptr(*name)
		}
		t.farmers[farmerID] = f
		return nil
	})
}

// checkUserFree aplica el índice único parcial farmers(user_users) y la FK a users.
func checkUserFree(t *tables, userID, exceptFarmer int64) error {
	if _, ok := t.users[userID]; !ok {
		return domain.NotFound("user", userID)
	}
	for id, f := range t.farmers {
		if id != exceptFarmer && f.BoundTo(userID) {
			return domain.ErrDuplicate
		}
	}
	return nil
}

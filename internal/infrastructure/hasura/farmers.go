package hasura

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.FarmerRepository = (*FarmerRepo)(nil)

// FarmerRepo adaptador de FarmerRepository sobre Hasura.
type FarmerRepo struct {
	c *Client
}

// NewFarmerRepository construye el adaptador.
func NewFarmerRepository(c *Client) *FarmerRepo {
	return &FarmerRepo{c: c}
}

const qFarmerByPK = `query FarmerByPK($id: bigint!) {
  farmers_by_pk(id: $id) { ` + farmerFields + ` }
}`

func (r *FarmerRepo) GetByID(ctx context.Context, id int64) (*entity.Farmer, error) {
	var out struct {
		Farmer *farmerRow `json:"farmers_by_pk"`
	}
	if err := r.c.Execute(ctx, qFarmerByPK, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.Farmer == nil {
		return nil, nil
	}
	return out.Farmer.entity(), nil
}

const qFarmers = `query Farmers($where: farmers_bool_exp!, $limit: Int, $offset: Int) {
  farmers(where: $where, limit: $limit, offset: $offset, order_by: {id: asc}) { ` + farmerFields + ` }
}`

func (r *FarmerRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.Farmer, error) {
	return r.list(ctx, map[string]interface{}{"where": map[string]interface{}{
		"user_users": map[string]interface{}{"_eq": userID},
	}})
}

func (r *FarmerRepo) ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Farmer, error) {
	return r.list(ctx, map[string]interface{}{"where": map[string]interface{}{
		"user_users": map[string]interface{}{"_in": userIDs},
	}})
}

func (r *FarmerRepo) List(ctx context.Context, onlyUnbound bool, limit, offset int) ([]*entity.Farmer, error) {
	where := map[string]interface{}{}
	if onlyUnbound {
		where["user_users"] = map[string]interface{}{"_is_null": true}
	}
	vars := map[string]interface{}{"where": where, "offset": offset}
	if limit > 0 {
		vars["limit"] = limit
	}
	return r.list(ctx, vars)
}

func (r *FarmerRepo) list(ctx context.Context, vars map[string]interface{}) ([]*entity.Farmer, error) {
	var out struct {
		Farmers []farmerRow `json:"farmers"`
	}
	if err := r.c.Execute(ctx, qFarmers, vars, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.Farmer, 0, len(out.Farmers))
	for i := range out.Farmers {
		list = append(list, out.Farmers[i].entity())
	}
	return list, nil
}

const mInsertFarmer = `mutation InsertFarmer($object: farmers_insert_input!) {
  insert_farmers_one(object: $object) { ` + farmerFields + ` }
}`

func (r *FarmerRepo) Create(ctx context.Context, farmer *entity.Farmer) error {
	obj := map[string]interface{}{"name": farmer.Name, "user_users": farmer.UserID}
	var out struct {
		Farmer *farmerRow `json:"insert_farmers_one"`
	}
	if err := r.c.Execute(ctx, mInsertFarmer, map[string]interface{}{"object": obj}, &out); err != nil {
		return err
	}
	if out.Farmer == nil {
		return domain.ErrDuplicate
	}
	*farmer = *out.Farmer.entity()
	return nil
}

const mSetFarmerUser = `mutation SetFarmerUser($id: bigint!, $user: bigint!) {
  update_farmers_by_pk(pk_columns: {id: $id}, _set: {user_users: $user}) { id }
}`

func (r *FarmerRepo) SetUser(ctx context.Context, farmerID, userID int64) error {
	var out struct {
		Farmer *idRow `json:"update_farmers_by_pk"`
	}
	if err := r.c.Execute(ctx, mSetFarmerUser, map[string]interface{}{"id": farmerID, "user": userID}, &out); err != nil {
		return err
	}
	if out.Farmer == nil {
		return domain.NotFound("farmer", farmerID)
	}
	return nil
}

const mUnbindFarmers = `mutation UnbindFarmers($user: bigint!) {
  update_farmers(where: {user_users: {_eq: $user}}, _set: {user_users: null}) { affected_rows }
}`

func (r *FarmerRepo) UnbindUser(ctx context.Context, userID int64) (int64, error) {
	var out struct {
		Result returning[idRow] `json:"update_farmers"`
	}
	if err := r.c.Execute(ctx, mUnbindFarmers, map[string]interface{}{"user": userID}, &out); err != nil {
		return 0, err
	}
	return out.Result.AffectedRows, nil
}

const mRenameFarmer = `mutation RenameFarmer($id: bigint!, $name: String) {
  update_farmers_by_pk(pk_columns: {id: $id}, _set: {name: $name}) { id }
}`

func (r *FarmerRepo) UpdateName(ctx context.Context, farmerID int64, name *string) error {
	var out struct {
		Farmer *idRow `json:"update_farmers_by_pk"`
	}
	if err := r.c.Execute(ctx, mRenameFarmer, map[string]interface{}{"id": farmerID, "name": name}, &out); err != nil {
		return err
	}
	if out.Farmer == nil {
		return domain.NotFound("farmer", farmerID)
	}
	return nil
}

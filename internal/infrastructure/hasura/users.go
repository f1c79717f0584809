package hasura

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo adaptador de UserRepository sobre Hasura.
type UserRepo struct {
	c *Client
}

// NewUserRepository construye el adaptador.
func NewUserRepository(c *Client) *UserRepo {
	return &UserRepo{c: c}
}

const qUserByPK = `query UserByPK($id: bigint!) {
  users_by_pk(id: $id) { ` + userFields + ` }
}`

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var out struct {
		User *userRow `json:"users_by_pk"`
	}
	if err := r.c.Execute(ctx, qUserByPK, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, nil
	}
	return out.User.entity(), nil
}

const qUsersByPhones = `query UsersByPhones($phones: [String!]!) {
  users(where: {phone: {_in: $phones}}, order_by: {id: asc}) { ` + userFields + ` }
}`

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	list, err := r.ListByPhones(ctx, []string{phone})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *UserRepo) ListByPhones(ctx context.Context, phones []string) ([]*entity.User, error) {
	var out struct {
		Users []userRow `json:"users"`
	}
	if err := r.c.Execute(ctx, qUsersByPhones, map[string]interface{}{"phones": phones}, &out); err != nil {
		return nil, err
	}
	return usersOf(out.Users), nil
}

const qListUsers = `query ListUsers($limit: Int, $offset: Int) {
  users(limit: $limit, offset: $offset, order_by: {id: asc}) { ` + userFields + ` }
}`

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	vars := map[string]interface{}{"offset": offset}
	if limit > 0 {
		vars["limit"] = limit
	}
	var out struct {
		Users []userRow `json:"users"`
	}
	if err := r.c.Execute(ctx, qListUsers, vars, &out); err != nil {
		return nil, err
	}
	return usersOf(out.Users), nil
}

const mInsertUser = `mutation InsertUser($object: users_insert_input!) {
  insert_users_one(object: $object) { ` + userFields + ` }
}`

func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	return r.insert(ctx, user, userObject(user))
}

func (r *UserRepo) CreateAccount(ctx context.Context, user *entity.User, roleType string, farmer *entity.Farmer) error {
	obj := userObject(user)
	obj["user_roles"] = map[string]interface{}{
		"data": []map[string]interface{}{{"role_type": roleType}},
	}
	if farmer != nil {
		obj["farmers"] = map[string]interface{}{
			"data": []map[string]interface{}{{"name": farmer.Name}},
		}
	}
	if err := r.insert(ctx, user, obj); err != nil {
		return err
	}
	if farmer == nil {
		return nil
	}
	// La inserción anidada no devuelve el id del agricultor; se lee por el vínculo recién creado.
	farmers, err := NewFarmerRepository(r.c).ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(farmers) == 0 {
		return domain.WrapQuery("InsertUser", fmt.Errorf("agricultor anidado no encontrado para el usuario %d", user.ID))
	}
	*farmer = *farmers[0]
	return nil
}

func (r *UserRepo) insert(ctx context.Context, user *entity.User, obj map[string]interface{}) error {
	var out struct {
		User *userRow `json:"insert_users_one"`
	}
	if err := r.c.Execute(ctx, mInsertUser, map[string]interface{}{"object": obj}, &out); err != nil {
		return err
	}
	if out.User == nil {
		return domain.ErrDuplicate
	}
	*user = *out.User.entity()
	return nil
}

const mUpdateUser = `mutation UpdateUser($id: bigint!, $set: users_set_input!) {
  update_users_by_pk(pk_columns: {id: $id}, _set: $set) { ` + userFields + ` }
}`

func (r *UserRepo) Update(ctx context.Context, id int64, patch entity.UserPatch) (*entity.User, error) {
	set := map[string]interface{}{"updated_at": time.Now().UTC()}
	if patch.Nickname != nil {
		set["nickname"] = *patch.Nickname
	}
	if patch.Password != nil {
		set["password"] = *patch.Password
	}
	var out struct {
		User *userRow `json:"update_users_by_pk"`
	}
	if err := r.c.Execute(ctx, mUpdateUser, map[string]interface{}{"id": id, "set": set}, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, domain.NotFound("user", id)
	}
	return out.User.entity(), nil
}

func userObject(u *entity.User) map[string]interface{} {
	obj := map[string]interface{}{"phone": u.Phone}
	if u.Nickname != nil {
		obj["nickname"] = *u.Nickname
	}
	if u.AvatarURL != nil {
		obj["avatar_url"] = *u.AvatarURL
	}
	if u.Password != nil {
		obj["password"] = *u.Password
	}
	return obj
}

func usersOf(rows []userRow) []*entity.User {
	out := make([]*entity.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].entity())
	}
	return out
}

package hasura

import (
	"context"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo adaptador de RoleRepository sobre Hasura.
type RoleRepo struct {
	c *Client
}

// NewRoleRepository construye el adaptador.
func NewRoleRepository(c *Client) *RoleRepo {
	return &RoleRepo{c: c}
}

const qRoleByPK = `query RoleByPK($id: bigint!) {
  user_roles_by_pk(id: $id) { ` + roleFields + ` }
}`

func (r *RoleRepo) GetByID(ctx context.Context, id int64) (*entity.Role, error) {
	var out struct {
		Role *roleRow `json:"user_roles_by_pk"`
	}
	if err := r.c.Execute(ctx, qRoleByPK, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.Role == nil {
		return nil, nil
	}
	return out.Role.entity(), nil
}

const qRolesByUsers = `query RolesByUsers($where: user_roles_bool_exp!) {
  user_roles(where: $where, order_by: {id: asc}) { ` + roleFields + ` }
}`

func (r *RoleRepo) ListByUser(ctx context.Context, userID int64, roleType string) ([]*entity.Role, error) {
	where := map[string]interface{}{"user_users": map[string]interface{}{"_eq": userID}}
	if roleType != "" {
		where["role_type"] = map[string]interface{}{"_eq": roleType}
	}
	return r.list(ctx, where)
}

func (r *RoleRepo) ListByUsers(ctx context.Context, userIDs []int64) ([]*entity.Role, error) {
	return r.list(ctx, map[string]interface{}{"user_users": map[string]interface{}{"_in": userIDs}})
}

func (r *RoleRepo) list(ctx context.Context, where map[string]interface{}) ([]*entity.Role, error) {
	var out struct {
		Roles []roleRow `json:"user_roles"`
	}
	if err := r.c.Execute(ctx, qRolesByUsers, map[string]interface{}{"where": where}, &out); err != nil {
		return nil, err
	}
	list := make([]*entity.Role, 0, len(out.Roles))
	for i := range out.Roles {
		list = append(list, out.Roles[i].entity())
	}
	return list, nil
}

// on_conflict sin update_columns: si la fila existe Hasura devuelve null en lugar de error.
const mInsertRole = `mutation InsertRole($user: bigint!, $type: String!) {
  insert_user_roles_one(
    object: {user_users: $user, role_type: $type}
    on_conflict: {constraint: user_roles_user_users_role_type_key, update_columns: []}
  ) { ` + roleFields + ` }
}`

func (r *RoleRepo) Create(ctx context.Context, userID int64, roleType string) (*entity.Role, error) {
	var out struct {
		Role *roleRow `json:"insert_user_roles_one"`
	}
	vars := map[string]interface{}{"user": userID, "type": roleType}
	if err := r.c.Execute(ctx, mInsertRole, vars, &out); err != nil {
		return nil, err
	}
	if out.Role == nil {
		return nil, domain.ErrDuplicate
	}
	return out.Role.entity(), nil
}

const mDeleteRole = `mutation DeleteRole($id: bigint!) {
  delete_user_roles_by_pk(id: $id) { id }
}`

func (r *RoleRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var out struct {
		Deleted *idRow `json:"delete_user_roles_by_pk"`
	}
	if err := r.c.Execute(ctx, mDeleteRole, map[string]interface{}{"id": id}, &out); err != nil {
		return false, err
	}
	return out.Deleted != nil, nil
}

package dto

import (
	"time"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

// CreateUserRequest alta de usuario con contraseña (se hashea en el caso de uso).
type CreateUserRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateOperatorRequest alta o conversión de una cuenta de operador.
type CreateOperatorRequest struct {
	Phone    string  `json:"phone" validate:"required"`
	Nickname *string `json:"nickname,omitempty"`
	Password string  `json:"password" validate:"required"`
}

// CreateFarmerRequest sin phone crea un agricultor sin vincular; con phone lo vincula a ese usuario.
type CreateFarmerRequest struct {
	Phone      string `json:"phone,omitempty"`
	FarmerName string `json:"farmer_name"`
}

// ProvisionFarmerRequest alta o conversión de una cuenta de agricultor (usuario + rol + perfil).
type ProvisionFarmerRequest struct {
	Phone      string  `json:"phone" validate:"required"`
	Nickname   *string `json:"nickname,omitempty"`
	Password   *string `json:"password,omitempty"`
	FarmerName *string `json:"farmer_name,omitempty"`
}

// UserIDRequest cuerpo de set-operator y set-admin.
type UserIDRequest struct {
	UserID int64 `json:"userId" validate:"required"`
}

// FarmerBindingRequest cuerpo de set-farmer y update-farmer-user.
type FarmerBindingRequest struct {
	UserID   int64 `json:"userId" validate:"required"`
	FarmerID int64 `json:"farmerId" validate:"required"`
}

// UpdateUserRequest cambios parciales; al menos uno obligatorio.
type UpdateUserRequest struct {
	Nickname *string `json:"nickname,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          int64     `json:"id"`
	Phone       string    `json:"phone"`
	Nickname    *string   `json:"nickname"`
	AvatarURL   *string   `json:"avatar_url"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleResponse fila de user_roles.
type RoleResponse struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_users"`
	RoleType string `json:"role_type"`
}

// FarmerResponse perfil de agricultor; user_users es null si no está vinculado.
type FarmerResponse struct {
	ID     int64   `json:"id"`
	UserID *int64  `json:"user_users"`
	Name   *string `json:"name"`
}

// AccountResponse usuario con sus roles y su agricultor.
type AccountResponse struct {
	User   UserResponse    `json:"user"`
	Roles  []RoleResponse  `json:"roles"`
	Farmer *FarmerResponse `json:"farmer"`
}

// CreateFarmerResponse resultado de create-farmer; User es null si el perfil queda sin vincular.
type CreateFarmerResponse struct {
	Farmer FarmerResponse `json:"farmer"`
	User   *UserResponse  `json:"user"`
}

// OKResponse confirmación de operaciones idempotentes.
type OKResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// RevokeRoleResponse resultado de quitar un rol.
type RevokeRoleResponse struct {
	OK             bool         `json:"ok"`
	Role           RoleResponse `json:"role"`
	UnboundFarmers int64        `json:"unbound_farmers"`
}

// UserListResponse listado paginado de cuentas.
type UserListResponse struct {
	Items []AccountResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// FarmerListResponse listado paginado de agricultores.
type FarmerListResponse struct {
	Items []FarmerResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// NewUserResponse proyecta la entidad; nunca expone el digest.
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Phone:       u.Phone,
		Nickname:    u.Nickname,
		AvatarURL:   u.AvatarURL,
		HasPassword: u.HasPassword(),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func NewRoleResponse(r *entity.Role) RoleResponse {
	return RoleResponse{ID: r.ID, UserID: r.UserID, RoleType: r.RoleType}
}

func NewFarmerResponse(f *entity.Farmer) FarmerResponse {
	return FarmerResponse{ID: f.ID, UserID: f.UserID, Name: f.Name}
}

// NewAccountResponse roles siempre como lista (vacía si no hay).
func NewAccountResponse(a *entity.Account) AccountResponse {
	out := AccountResponse{User: NewUserResponse(a.User), Roles: make([]RoleResponse, 0, len(a.Roles))}
	for _, r := range a.Roles {
		out.Roles = append(out.Roles, NewRoleResponse(r))
	}
	if a.Farmer != nil {
		f := NewFarmerResponse(a.Farmer)
		out.Farmer = &f
	}
	return out
}

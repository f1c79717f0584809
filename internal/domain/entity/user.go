package entity

import "time"

// User representa una cuenta del marketplace. Phone es la clave natural (única).
type User struct {
	ID        int64
	Phone     string
	Nickname  *string
	AvatarURL *string
	Password  *string // digest bcrypt; nunca texto plano
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword indica si la cuenta puede autenticarse con contraseña.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// UserPatch cambios parciales sobre un usuario; nil = sin cambio.
type UserPatch struct {
	Nickname *string
	Password *string // ya hasheado
}

// IsEmpty indica si el patch no modifica nada.
func (p UserPatch) IsEmpty() bool {
	return p.Nickname == nil && p.Password == nil
}

package entity

// Account proyección canónica de un usuario con sus roles y su agricultor vinculado.
// User nunca lleva Password.
type Account struct {
	User   *User
	Roles  []*Role
	Farmer *Farmer
}

// NewAccount construye la proyección y descarta el digest de contraseña.
func NewAccount(u *User, roles []*Role, farmer *Farmer) *Account {
	projected := *u
	projected.Password = nil
	return &Account{User: &projected, Roles: roles, Farmer: farmer}
}

// HasRole indica si la cuenta tiene el tipo de rol dado.
func (a *Account) HasRole(roleType string) bool {
	for _, r := range a.Roles {
		if r.RoleType == roleType {
			return true
		}
	}
	return false
}

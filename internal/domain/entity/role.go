package entity

// Tipos de rol conocidos. La enumeración es abierta: el almacén acepta cualquier string.
const (
	RoleOperator = "operator"
	RoleFarmer   = "farmer"
	RoleAdmin    = "admin"
)

// Role asignación (usuario, role_type) de la tabla user_roles.
// Invariante: como máximo una fila por par (UserID, RoleType).
type Role struct {
	ID       int64
	UserID   int64
	RoleType string
}

// RoleTypes extrae los tipos de rol en el orden recibido.
func RoleTypes(roles []*Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.RoleType)
	}
	return out
}

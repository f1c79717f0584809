package entity

// Farmer perfil de agricultor. UserID es nil cuando el perfil no está vinculado.
// Invariante: un usuario está vinculado como mucho a un Farmer.
type Farmer struct {
	ID     int64
	UserID *int64
	Name   *string
}

// IsBound indica si el perfil está vinculado a algún usuario.
func (f *Farmer) IsBound() bool {
	return f.UserID != nil
}

// BoundTo indica si el perfil está vinculado exactamente a userID.
func (f *Farmer) BoundTo(userID int64) bool {
	return f.UserID != nil && *f.UserID == userID
}

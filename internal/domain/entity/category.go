package entity

// Category categoría de fruta (clave natural: Name).
type Category struct {
	ID   int64
	Name string
}

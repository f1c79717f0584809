package entity

// Cart línea de carrito; única por (UserID, ProductID).
type Cart struct {
	ID         int64
	UserID     int64
	ProductID  int64
	Quantity   int
	IsSelected bool
}

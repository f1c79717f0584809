package entity

import "github.com/shopspring/decimal"

// Product producto a la venta; hay como mucho uno por lote (clave natural: BatchID).
type Product struct {
	ID         int64
	BatchID    int64
	CategoryID *int64
	OriginID   *int64
	Name       string
	ImageURL   string
	UnitPrice  decimal.Decimal
	UnitStock  int
	Unit       string
	Sales      int
}

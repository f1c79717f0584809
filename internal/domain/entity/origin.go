package entity

// Origin procedencia del producto (clave natural: Name). CategoryName agrupa "国内" / "进口".
type Origin struct {
	ID           int64
	Name         string
	CategoryName string
}

package repository

import "context"

// Repos agrupa los repositorios atados a una misma unidad de trabajo.
type Repos struct {
	Users   UserRepository
	Roles   RoleRepository
	Farmers FarmerRepository
	Catalog CatalogRepository
}

// TxRunner ejecuta fn con repositorios atados a una transacción cuando el almacén la soporta.
// Si fn devuelve error se hace rollback; sin soporte transaccional los pasos ya aplicados persisten.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

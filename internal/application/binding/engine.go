// Package binding mantiene consistentes usuarios, roles y agricultores:
// concesión y revocación de roles, vinculación agricultor-usuario y alta de perfiles.
package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

// Engine casos de uso de roles y vinculación. Cada procedimiento de varios pasos
// se ejecuta con bloqueo por sujeto y dentro de TxRunner.Run.
type Engine struct {
	repos  repository.Repos
	tx     repository.TxRunner
	locker ports.Locker
	log    zerolog.Logger
}

// NewEngine construye el motor. repos se usa para lecturas fuera de una unidad de trabajo.
func NewEngine(repos repository.Repos, tx repository.TxRunner, locker ports.Locker, log zerolog.Logger) *Engine {
	return &Engine{
		repos:  repos,
		tx:     tx,
		locker: locker,
		log:    log.With().Str("component", "binding").Logger(),
	}
}

// RunLocked adquiere las claves (ordenadas y sin repetir) y ejecuta fn dentro de una unidad de trabajo.
func RunLocked(ctx context.Context, locker ports.Locker, tx repository.TxRunner, keys []string, fn func(r repository.Repos) error) error {
	release, err := locker.Lock(ctx, ports.SortKeys(keys)...)
	if err != nil {
		return fmt.Errorf("adquirir bloqueo: %w", err)
	}
	defer release()
	return tx.Run(ctx, fn)
}

const maxRebindAttempts = 5

// errOwnerChanged el dueño del agricultor cambió entre la lectura y el bloqueo.
var errOwnerChanged = errors.New("dueño del agricultor cambió")

// RevokeResult resultado de RevokeRole.
type RevokeResult struct {
	Role           *entity.Role
	UnboundFarmers int64
}

// GrantRole concede roleType al usuario. Si la fila ya existe devuelve la existente.
func (e *Engine) GrantRole(ctx context.Context, userID int64, roleType string) (*entity.Role, error) {
	var out *entity.Role
	err := RunLocked(ctx, e.locker, e.tx, []string{ports.UserKey(userID)}, func(r repository.Repos) error {
		role, err := GrantRoleTx(ctx, r, userID, roleType)
		out = role
		return err
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Int64("user_id", userID).Str("role_type", roleType).Int64("role_id", out.ID).Msg("rol concedido")
	return out, nil
}

// GrantRoleTx comprueba antes de insertar; una inserción concurrente (ErrDuplicate) se resuelve releyendo la fila.
func GrantRoleTx(ctx context.Context, r repository.Repos, userID int64, roleType string) (*entity.Role, error) {
	if roleType == "" {
		return nil, fmt.Errorf("%w: role_type requerido", domain.ErrInvalidInput)
	}
	if _, err := UserByIDTx(ctx, r, userID); err != nil {
		return nil, err
	}
	if existing, err := firstRole(ctx, r, userID, roleType); err != nil || existing != nil {
		return existing, err
	}
	role, err := r.Roles.Create(ctx, userID, roleType)
	if errors.Is(err, domain.ErrDuplicate) {
		existing, rerr := firstRole(ctx, r, userID, roleType)
		if rerr != nil {
			return nil, rerr
		}
		if existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, domain.WrapQuery("insertar rol", err)
	}
	return role, nil
}

// GuardAdminTarget ErrForbidden si userID tiene rol admin y quien actúa no es admin.
func GuardAdminTarget(ctx context.Context, r repository.Repos, userID int64, byAdmin bool) error {
	if byAdmin {
		return nil
	}
	admin, err := firstRole(ctx, r, userID, entity.RoleAdmin)
	if err != nil {
		return err
	}
	if admin != nil {
		return fmt.Errorf("%w: la cuenta es admin", domain.ErrForbidden)
	}
	return nil
}

func firstRole(ctx context.Context, r repository.Repos, userID int64, roleType string) (*entity.Role, error) {
	roles, err := r.Roles.ListByUser(ctx, userID, roleType)
	if err != nil {
		return nil, domain.WrapQuery("listar roles", err)
	}
	if len(roles) == 0 {
		return nil, nil
	}
	return roles[0], nil
}

// RevokeRole elimina el rol. Para "farmer" primero desvincula todos los agricultores del dueño.
// Un rol admin solo lo revoca otro admin (byAdmin).
func (e *Engine) RevokeRole(ctx context.Context, roleID int64, byAdmin bool) (*RevokeResult, error) {
	role, err := e.repos.Roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, domain.WrapQuery("buscar rol", err)
	}
	if role == nil {
		return nil, domain.NotFound("role", roleID)
	}
	if role.RoleType == entity.RoleAdmin && !byAdmin {
		return nil, fmt.Errorf("%w: solo un admin revoca el rol admin", domain.ErrForbidden)
	}
	var out *RevokeResult
	err = RunLocked(ctx, e.locker, e.tx, []string{ports.UserKey(role.UserID)}, func(r repository.Repos) error {
		res, err := RevokeRoleTx(ctx, r, roleID)
		out = res
		return err
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Int64("role_id", roleID).Str("role_type", out.Role.RoleType).
		Int64("user_id", out.Role.UserID).Int64("unbound_farmers", out.UnboundFarmers).Msg("rol revocado")
	return out, nil
}

// RevokeRoleTx desvinculación en cascada (por usuario, no por agricultor) y luego borrado del rol.
func RevokeRoleTx(ctx context.Context, r repository.Repos, roleID int64) (*RevokeResult, error) {
	role, err := r.Roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, domain.WrapQuery("buscar rol", err)
	}
	if role == nil {
		return nil, domain.NotFound("role", roleID)
	}
	res := &RevokeResult{Role: role}
	if role.RoleType == entity.RoleFarmer {
		n, err := r.Farmers.UnbindUser(ctx, role.UserID)
		if err != nil {
			return nil, domain.WrapQuery("desvincular agricultores", err)
		}
		res.UnboundFarmers = n
	}
	deleted, err := r.Roles.Delete(ctx, roleID)
	if err != nil {
		return nil, domain.WrapQuery("eliminar rol", err)
	}
	if !deleted {
		return nil, domain.NotFound("role", roleID)
	}
	return res, nil
}

// BindFarmerToUser vincula un agricultor libre (o ya vinculado al mismo usuario) al usuario.
// AlreadyBound si el agricultor pertenece a otro usuario.
func (e *Engine) BindFarmerToUser(ctx context.Context, farmerID, userID int64) (*entity.Farmer, error) {
	var out *entity.Farmer
	keys := []string{ports.FarmerKey(farmerID), ports.UserKey(userID)}
	err := RunLocked(ctx, e.locker, e.tx, keys, func(r repository.Repos) error {
		f, err := BindFarmerTx(ctx, r, farmerID, userID)
		out = f
		return err
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Int64("farmer_id", farmerID).Int64("user_id", userID).Msg("agricultor vinculado")
	return out, nil
}

// BindFarmerTx desvincula todo lo del usuario, fija el agricultor y asegura el rol farmer.
func BindFarmerTx(ctx context.Context, r repository.Repos, farmerID, userID int64) (*entity.Farmer, error) {
	farmer, err := FarmerByIDTx(ctx, r, farmerID)
	if err != nil {
		return nil, err
	}
	if _, err := UserByIDTx(ctx, r, userID); err != nil {
		return nil, err
	}
	if farmer.IsBound() && !farmer.BoundTo(userID) {
		return nil, domain.ErrAlreadyBound
	}
	return assignFarmer(ctx, r, farmerID, userID)
}

// RebindFarmerUser reasigna el agricultor a newUserID sin exigir que esté libre.
// Los demás agricultores de newUserID quedan desvinculados.
func (e *Engine) RebindFarmerUser(ctx context.Context, farmerID, newUserID int64) (*entity.Farmer, error) {
	var (
		out      *entity.Farmer
		previous *int64
	)
	for attempt := 1; ; attempt++ {
		// El dueño actual se lee fuera del bloqueo para saber qué clave tomar;
		// dentro se comprueba que no haya cambiado.
		locked, err := e.repos.Farmers.GetByID(ctx, farmerID)
		if err != nil {
			return nil, domain.WrapQuery("buscar agricultor", err)
		}
		keys := []string{ports.FarmerKey(farmerID), ports.UserKey(newUserID)}
		var lockedOwner *int64
		if locked != nil && locked.UserID != nil {
			lockedOwner = locked.UserID
			keys = append(keys, ports.UserKey(*lockedOwner))
		}
		err = RunLocked(ctx, e.locker, e.tx, keys, func(r repository.Repos) error {
			farmer, err := FarmerByIDTx(ctx, r, farmerID)
			if err != nil {
				return err
			}
			if farmer.UserID != nil && !farmer.BoundTo(newUserID) && (lockedOwner == nil || *farmer.UserID != *lockedOwner) {
				return errOwnerChanged
			}
			if _, err := UserByIDTx(ctx, r, newUserID); err != nil {
				return err
			}
			previous = farmer.UserID
			out, err = assignFarmer(ctx, r, farmerID, newUserID)
			return err
		})
		if errors.Is(err, errOwnerChanged) && attempt < maxRebindAttempts {
			e.log.Debug().Int64("farmer_id", farmerID).Int("attempt", attempt).Msg("dueño cambió antes del bloqueo, reintentando")
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	ev := e.log.Info().Int64("farmer_id", farmerID).Int64("user_id", newUserID)
	if previous != nil {
		ev = ev.Int64("previous_user_id", *previous)
	}
	ev.Msg("agricultor reasignado")
	return out, nil
}

func assignFarmer(ctx context.Context, r repository.Repos, farmerID, userID int64) (*entity.Farmer, error) {
	if _, err := r.Farmers.UnbindUser(ctx, userID); err != nil {
		return nil, domain.WrapQuery("desvincular agricultores", err)
	}
	if err := r.Farmers.SetUser(ctx, farmerID, userID); err != nil {
		return nil, domain.WrapQuery("vincular agricultor", err)
	}
	if _, err := GrantRoleTx(ctx, r, userID, entity.RoleFarmer); err != nil {
		return nil, err
	}
	return FarmerByIDTx(ctx, r, farmerID)
}

// CreateFarmerProfile crea un agricultor libre (userID nil) o vinculado.
// AlreadyHasFarmer si el usuario ya tiene uno.
func (e *Engine) CreateFarmerProfile(ctx context.Context, name *string, userID *int64) (*entity.Farmer, error) {
	var keys []string
	if userID != nil {
		keys = append(keys, ports.UserKey(*userID))
	}
	var out *entity.Farmer
	err := RunLocked(ctx, e.locker, e.tx, keys, func(r repository.Repos) error {
		f, err := CreateFarmerTx(ctx, r, name, userID)
		out = f
		return err
	})
	if err != nil {
		return nil, err
	}
	ev := e.log.Info().Int64("farmer_id", out.ID)
	if userID != nil {
		ev = ev.Int64("user_id", *userID)
	}
	ev.Msg("agricultor creado")
	return out, nil
}

// CreateFarmerTx variante de CreateFarmerProfile sobre repos ya atados a una unidad de trabajo.
func CreateFarmerTx(ctx context.Context, r repository.Repos, name *string, userID *int64) (*entity.Farmer, error) {
	farmer := &entity.Farmer{Name: name}
	if userID == nil {
		if err := r.Farmers.Create(ctx, farmer); err != nil {
			return nil, domain.WrapQuery("insertar agricultor", err)
		}
		return farmer, nil
	}
	if _, err := UserByIDTx(ctx, r, *userID); err != nil {
		return nil, err
	}
	owned, err := r.Farmers.ListByUser(ctx, *userID)
	if err != nil {
		return nil, domain.WrapQuery("listar agricultores", err)
	}
	if len(owned) > 0 {
		return nil, domain.ErrAlreadyHasFarmer
	}
	farmer.UserID = userID
	if err := r.Farmers.Create(ctx, farmer); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrAlreadyHasFarmer
		}
		return nil, domain.WrapQuery("insertar agricultor", err)
	}
	if _, err := GrantRoleTx(ctx, r, *userID, entity.RoleFarmer); err != nil {
		return nil, err
	}
	return farmer, nil
}

// ListFarmers lista agricultores; onlyUnbound filtra los que no tienen usuario.
func (e *Engine) ListFarmers(ctx context.Context, onlyUnbound bool, limit, offset int) ([]*entity.Farmer, error) {
	list, err := e.repos.Farmers.List(ctx, onlyUnbound, limit, offset)
	return list, domain.WrapQuery("listar agricultores", err)
}

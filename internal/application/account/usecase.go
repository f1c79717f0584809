// Package account alta idempotente de cuentas (operador, agricultor) y gestión administrativa de usuarios.
package account

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
	"github.com/jhoicas/agromarket-api/pkg/phone"
)

// ProvisionInput datos de alta. Password llega en texto plano y se hashea aquí.
type ProvisionInput struct {
	Phone      string
	Nickname   *string
	Password   *string
	RoleType   string
	FarmerName *string
	// ByAdmin quien aprovisiona es admin; si no, no puede cambiar credenciales de una cuenta admin.
	ByAdmin bool
}

// UseCase casos de uso de cuentas.
type UseCase struct {
	repos  repository.Repos
	tx     repository.TxRunner
	locker ports.Locker
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(repos repository.Repos, tx repository.TxRunner, locker ports.Locker, hasher ports.PasswordHasher, log zerolog.Logger) *UseCase {
	return &UseCase{
		repos:  repos,
		tx:     tx,
		locker: locker,
		hasher: hasher,
		log:    log.With().Str("component", "account").Logger(),
	}
}

// ProvisionAccount crea la cuenta o converge la existente al estado pedido.
// El resultado es el mismo en ambos casos salvo por los timestamps.
func (uc *UseCase) ProvisionAccount(ctx context.Context, in ProvisionInput) (*entity.Account, error) {
	if in.RoleType == "" {
		return nil, fmt.Errorf("%w: role_type requerido", domain.ErrInvalidInput)
	}
	p, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	hashed, err := uc.hashOptional(in.Password)
	if err != nil {
		return nil, err
	}

	keys := []string{ports.PhoneKey(p)}
	if existing, err := uc.repos.Users.GetByPhone(ctx, p); err == nil && existing != nil {
		keys = append(keys, ports.UserKey(existing.ID))
	}

	var (
		out     *entity.Account
		created bool
	)
	err = binding.RunLocked(ctx, uc.locker, uc.tx, keys, func(r repository.Repos) error {
		user, err := r.Users.GetByPhone(ctx, p)
		if err != nil {
			return domain.WrapQuery("buscar usuario por teléfono", err)
		}
		if user == nil {
			created = true
			out, err = createAccount(ctx, r, p, in, hashed)
			return err
		}
		out, err = convergeAccount(ctx, r, user, in, hashed)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("user_id", out.User.ID).Str("role_type", in.RoleType).Bool("created", created).Msg("cuenta aprovisionada")
	return out, nil
}

func createAccount(ctx context.Context, r repository.Repos, p string, in ProvisionInput, hashed *string) (*entity.Account, error) {
	user := &entity.User{Phone: p, Nickname: in.Nickname, Password: hashed}
	var farmer *entity.Farmer
	if in.RoleType == entity.RoleFarmer {
		farmer = &entity.Farmer{Name: in.FarmerName}
	}
	if err := r.Users.CreateAccount(ctx, user, in.RoleType, farmer); err != nil {
		return nil, domain.WrapQuery("crear cuenta", err)
	}
	return binding.AccountTx(ctx, r, user)
}

func convergeAccount(ctx context.Context, r repository.Repos, user *entity.User, in ProvisionInput, hashed *string) (*entity.Account, error) {
	patch := entity.UserPatch{Nickname: in.Nickname, Password: hashed}
	if !patch.IsEmpty() {
		if err := binding.GuardAdminTarget(ctx, r, user.ID, in.ByAdmin); err != nil {
			return nil, err
		}
		updated, err := r.Users.Update(ctx, user.ID, patch)
		if err != nil {
			return nil, domain.WrapQuery("actualizar usuario", err)
		}
		user = updated
	}
	if _, err := binding.GrantRoleTx(ctx, r, user.ID, in.RoleType); err != nil {
		return nil, err
	}
	if in.RoleType == entity.RoleFarmer {
		owned, err := r.Farmers.ListByUser(ctx, user.ID)
		if err != nil {
			return nil, domain.WrapQuery("listar agricultores", err)
		}
		switch {
		case len(owned) == 0:
			if _, err := binding.CreateFarmerTx(ctx, r, in.FarmerName, &user.ID); err != nil {
				return nil, err
			}
		case in.FarmerName != nil && !sameName(owned[0].Name, in.FarmerName):
			if err := r.Farmers.UpdateName(ctx, owned[0].ID, in.FarmerName); err != nil {
				return nil, domain.WrapQuery("actualizar agricultor", err)
			}
		}
	}
	return binding.AccountTx(ctx, r, user)
}

func sameName(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// CreateUser alta simple sin roles. ErrDuplicate si el teléfono ya existe.
func (uc *UseCase) CreateUser(ctx context.Context, rawPhone, password string) (*entity.Account, error) {
	p, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	hashed, err := uc.hashOptional(&password)
	if err != nil {
		return nil, err
	}
	var out *entity.Account
	err = binding.RunLocked(ctx, uc.locker, uc.tx, []string{ports.PhoneKey(p)}, func(r repository.Repos) error {
		existing, err := r.Users.GetByPhone(ctx, p)
		if err != nil {
			return domain.WrapQuery("buscar usuario por teléfono", err)
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		user := &entity.User{Phone: p, Password: hashed}
		if err := r.Users.Create(ctx, user); err != nil {
			return domain.WrapQuery("crear usuario", err)
		}
		out = entity.NewAccount(user, nil, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("user_id", out.User.ID).Msg("usuario creado")
	return out, nil
}

// UpdateUser cambia apodo y/o contraseña. Solo un admin (byAdmin) modifica una cuenta admin.
func (uc *UseCase) UpdateUser(ctx context.Context, id int64, nickname, password *string, byAdmin bool) (*entity.Account, error) {
	hashed, err := uc.hashOptional(password)
	if err != nil {
		return nil, err
	}
	patch := entity.UserPatch{Nickname: nickname, Password: hashed}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nada que actualizar", domain.ErrInvalidInput)
	}
	var out *entity.Account
	err = binding.RunLocked(ctx, uc.locker, uc.tx, []string{ports.UserKey(id)}, func(r repository.Repos) error {
		if _, err := binding.UserByIDTx(ctx, r, id); err != nil {
			return err
		}
		if err := binding.GuardAdminTarget(ctx, r, id, byAdmin); err != nil {
			return err
		}
		user, err := r.Users.Update(ctx, id, patch)
		if err != nil {
			return domain.WrapQuery("actualizar usuario", err)
		}
		out, err = binding.AccountTx(ctx, r, user)
		return err
	})
	return out, err
}

// ListUsers página de cuentas con roles y agricultor.
func (uc *UseCase) ListUsers(ctx context.Context, limit, offset int) ([]*entity.Account, error) {
	users, err := uc.repos.Users.List(ctx, limit, offset)
	if err != nil {
		return nil, domain.WrapQuery("listar usuarios", err)
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	roles, err := uc.repos.Roles.ListByUsers(ctx, ids)
	if err != nil {
		return nil, domain.WrapQuery("listar roles", err)
	}
	farmers, err := uc.repos.Farmers.ListByUsers(ctx, ids)
	if err != nil {
		return nil, domain.WrapQuery("listar agricultores", err)
	}
	rolesBy := make(map[int64][]*entity.Role, len(users))
	for _, r := range roles {
		rolesBy[r.UserID] = append(rolesBy[r.UserID], r)
	}
	farmerBy := make(map[int64]*entity.Farmer, len(farmers))
	for _, f := range farmers {
		if _, ok := farmerBy[*f.UserID]; !ok {
			farmerBy[*f.UserID] = f
		}
	}
	out := make([]*entity.Account, 0, len(users))
	for _, u := range users {
		out = append(out, entity.NewAccount(u, rolesBy[u.ID], farmerBy[u.ID]))
	}
	return out, nil
}

func (uc *UseCase) hashOptional(plain *string) (*string, error) {
	if plain == nil {
		return nil, nil
	}
	if *plain == "" {
		return nil, fmt.Errorf("%w: password vacío", domain.ErrInvalidInput)
	}
	h, err := uc.hasher.Hash(*plain)
	if err != nil {
		return nil, fmt.Errorf("hashear password: %w", err)
	}
	return &h, nil
}

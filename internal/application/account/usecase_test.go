package account_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/agromarket-api/internal/application/account"
	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/memory"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/security"
)

func newUseCase(t *testing.T) (*account.UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	uc := account.NewUseCase(store.Repos(), store, memory.NewKeyedLocker(),
		security.NewBcryptHasher(bcrypt.MinCost), zerolog.Nop())
	return uc, store
}

func str(s string) *string { return &s }

func TestProvisionAccount_NuevoOperador(t *testing.T) {
	uc, store := newUseCase(t)
	acc, err := uc.ProvisionAccount(context.Background(), account.ProvisionInput{
		Phone: "13800138001", Nickname: str("运营负责人"), Password: str("p1"), RoleType: entity.RoleOperator,
	})
	require.NoError(t, err)
	assert.Equal(t, "13800138001", acc.User.Phone)
	assert.Nil(t, acc.User.Password, "la proyección no expone el password")
	assert.True(t, acc.HasRole(entity.RoleOperator))
	assert.Nil(t, acc.Farmer)
	assert.Equal(t, 0, store.Counts().Farmers)
}

func TestProvisionAccount_NuevoAgricultorAnidado(t *testing.T) {
	uc, store := newUseCase(t)
	acc, err := uc.ProvisionAccount(context.Background(), account.ProvisionInput{
		Phone: "13800138002", RoleType: entity.RoleFarmer, FarmerName: str("张三"),
	})
	require.NoError(t, err)
	require.NotNil(t, acc.Farmer)
	assert.True(t, acc.Farmer.BoundTo(acc.User.ID))
	assert.Equal(t, "张三", *acc.Farmer.Name)
	c := store.Counts()
	assert.Equal(t, 1, c.Users)
	assert.Equal(t, 1, c.Roles)
	assert.Equal(t, 1, c.Farmers)
}

func TestProvisionAccount_ConvergeExistente(t *testing.T) {
	ctx := context.Background()
	uc, store := newUseCase(t)
	first, err := uc.ProvisionAccount(ctx, account.ProvisionInput{Phone: "13800138002", RoleType: entity.RoleOperator})
	require.NoError(t, err)

	in := account.ProvisionInput{
		Phone: "138 0013 8002", Nickname: str("张三果农"), RoleType: entity.RoleFarmer, FarmerName: str("张三"),
	}
	second, err := uc.ProvisionAccount(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "张三果农", *second.User.Nickname)
	assert.True(t, second.HasRole(entity.RoleOperator))
	assert.True(t, second.HasRole(entity.RoleFarmer))
	require.NotNil(t, second.Farmer)

	// Repetir no duplica nada; un nombre distinto solo renombra.
	in.FarmerName = str("张三丰")
	third, err := uc.ProvisionAccount(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, second.Farmer.ID, third.Farmer.ID)
	assert.Equal(t, "张三丰", *third.Farmer.Name)
	c := store.Counts()
	assert.Equal(t, 1, c.Users)
	assert.Equal(t, 2, c.Roles)
	assert.Equal(t, 1, c.Farmers)
}

func TestProvisionAccount_Validacion(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.ProvisionAccount(context.Background(), account.ProvisionInput{Phone: "abc", RoleType: entity.RoleOperator})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.ProvisionAccount(context.Background(), account.ProvisionInput{Phone: "13800138001"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateUser_Duplicado(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	acc, err := uc.CreateUser(ctx, "13800138004", "secret")
	require.NoError(t, err)
	assert.Empty(t, acc.Roles)

	_, err = uc.CreateUser(ctx, "13800138004", "otro")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdateUserYListUsers(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	a, err := uc.ProvisionAccount(ctx, account.ProvisionInput{Phone: "13800138002", RoleType: entity.RoleFarmer})
	require.NoError(t, err)
	_, err = uc.CreateUser(ctx, "13800138004", "secret")
	require.NoError(t, err)

	updated, err := uc.UpdateUser(ctx, a.User.ID, str("新昵称"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, "新昵称", *updated.User.Nickname)

	_, err = uc.UpdateUser(ctx, a.User.ID, nil, nil, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.UpdateUser(ctx, 999, str("x"), nil, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].HasRole(entity.RoleFarmer))
	assert.NotNil(t, list[0].Farmer)
	assert.Empty(t, list[1].Roles)
	assert.Nil(t, list[1].User.Password)
}

func TestCuentaAdmin_SoloAdminCambiaCredenciales(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	adm, err := uc.ProvisionAccount(ctx, account.ProvisionInput{
		Phone: "13800138005", Password: str("a"), RoleType: entity.RoleAdmin, ByAdmin: true,
	})
	require.NoError(t, err)

	_, err = uc.ProvisionAccount(ctx, account.ProvisionInput{
		Phone: "13800138005", Password: str("b"), RoleType: entity.RoleOperator,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.UpdateUser(ctx, adm.User.ID, str("x"), nil, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Sin cambios de credenciales la convergencia sigue permitida.
	acc, err := uc.ProvisionAccount(ctx, account.ProvisionInput{Phone: "13800138005", RoleType: entity.RoleOperator})
	require.NoError(t, err)
	assert.Len(t, acc.Roles, 2)

	updated, err := uc.UpdateUser(ctx, adm.User.ID, str("x"), nil, true)
	require.NoError(t, err)
	assert.Equal(t, "x", *updated.User.Nickname)
}

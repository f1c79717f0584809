package binding_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/memory"
)

type fixture struct {
	store  *memory.Store
	repos  repository.Repos
	engine *binding.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	return &fixture{
		store:  store,
		repos:  repos,
		engine: binding.NewEngine(repos, store, memory.NewKeyedLocker(), zerolog.Nop()),
	}
}

func (f *fixture) user(t *testing.T, phone string) *entity.User {
	t.Helper()
	u := &entity.User{Phone: phone}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) farmer(t *testing.T, userID *int64) *entity.Farmer {
	t.Helper()
	fm := &entity.Farmer{UserID: userID}
	require.NoError(t, f.repos.Farmers.Create(context.Background(), fm))
	return fm
}

func (f *fixture) boundCount(t *testing.T, userID int64) int {
	t.Helper()
	list, err := f.repos.Farmers.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return len(list)
}

func TestGrantRole_Idempotente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "13800138001")

	r1, err := f.engine.GrantRole(ctx, u.ID, entity.RoleFarmer)
	require.NoError(t, err)
	r2, err := f.engine.GrantRole(ctx, u.ID, entity.RoleFarmer)
	require.NoError(t, err)

	assert.Equal(t, r1.ID, r2.ID)
	roles, err := f.engine.FindRoles(ctx, u.ID, entity.RoleFarmer)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestGrantRole_NoCreaAgricultor(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "13800138001")

	_, err := f.engine.GrantRole(context.Background(), u.ID, entity.RoleFarmer)
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.Counts().Farmers)
}

func TestGrantRole_UsuarioInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.GrantRole(context.Background(), 42, entity.RoleOperator)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Entity)
	assert.Equal(t, "42", nf.Key)
}

func TestRevokeRole_FarmerDesvinculaEnCascada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "13800138002")
	fm := f.farmer(t, nil)

	_, err := f.engine.BindFarmerToUser(ctx, fm.ID, u.ID)
	require.NoError(t, err)
	roles, err := f.engine.FindRoles(ctx, u.ID, entity.RoleFarmer)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	res, err := f.engine.RevokeRole(ctx, roles[0].ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.UnboundFarmers)
	assert.Equal(t, 0, f.boundCount(t, u.ID))

	roles, err = f.engine.FindRoles(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Empty(t, roles)

	_, err = f.engine.RevokeRole(ctx, res.Role.ID, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevokeRole_OperatorNoTocaAgricultores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "13800138002")
	fm := f.farmer(t, nil)
	_, err := f.engine.BindFarmerToUser(ctx, fm.ID, u.ID)
	require.NoError(t, err)
	op, err := f.engine.GrantRole(ctx, u.ID, entity.RoleOperator)
	require.NoError(t, err)

	res, err := f.engine.RevokeRole(ctx, op.ID, false)
	require.NoError(t, err)
	assert.Zero(t, res.UnboundFarmers)
	assert.Equal(t, 1, f.boundCount(t, u.ID))
}

func TestRevokeRole_AdminSoloPorAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "13800138003")
	adm, err := f.engine.GrantRole(ctx, u.ID, entity.RoleAdmin)
	require.NoError(t, err)

	_, err = f.engine.RevokeRole(ctx, adm.ID, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	roles, err := f.engine.FindRoles(ctx, u.ID, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	_, err = f.engine.RevokeRole(ctx, adm.ID, true)
	require.NoError(t, err)
}

func TestBindFarmerToUser_AlreadyBoundNoCambiaEstado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u3 := f.user(t, "13800000003")
	u5 := f.user(t, "13800000005")
	fm := f.farmer(t, &u5.ID)

	_, err := f.engine.BindFarmerToUser(ctx, fm.ID, u3.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyBound)

	got, err := f.engine.FindFarmerByID(ctx, fm.ID)
	require.NoError(t, err)
	assert.True(t, got.BoundTo(u5.ID))
	roles, err := f.engine.FindRoles(ctx, u3.ID, "")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestBindFarmerToUser_UnAgricultorPorUsuario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "13800138002")
	a := f.farmer(t, nil)
	b := f.farmer(t, nil)

	_, err := f.engine.BindFarmerToUser(ctx, a.ID, u.ID)
	require.NoError(t, err)
	_, err = f.engine.BindFarmerToUser(ctx, b.ID, u.ID)
	require.NoError(t, err)
	// Repetir es idempotente.
	got, err := f.engine.BindFarmerToUser(ctx, b.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, got.BoundTo(u.ID))

	assert.Equal(t, 1, f.boundCount(t, u.ID))
	prev, err := f.engine.FindFarmerByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, prev.IsBound())

	roles, err := f.engine.FindRoles(ctx, u.ID, entity.RoleFarmer)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestBindFarmerToUser_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "1")
	fm := f.farmer(t, nil)

	_, err := f.engine.BindFarmerToUser(ctx, 999, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.engine.BindFarmerToUser(ctx, fm.ID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRebindFarmerUser_ReasignaYDesalojaAnterior(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	oldOwner := f.user(t, "1")
	newOwner := f.user(t, "2")
	moved := f.farmer(t, &oldOwner.ID)
	evicted := f.farmer(t, &newOwner.ID)

	got, err := f.engine.RebindFarmerUser(ctx, moved.ID, newOwner.ID)
	require.NoError(t, err)
	assert.True(t, got.BoundTo(newOwner.ID))
	assert.Equal(t, 1, f.boundCount(t, newOwner.ID))
	assert.Equal(t, 0, f.boundCount(t, oldOwner.ID))

	ev, err := f.engine.FindFarmerByID(ctx, evicted.ID)
	require.NoError(t, err)
	assert.False(t, ev.IsBound())

	roles, err := f.engine.FindRoles(ctx, newOwner.ID, entity.RoleFarmer)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

// racingLocker mueve el agricultor a otro dueño justo antes del primer bloqueo.
type racingLocker struct {
	inner ports.Locker
	race  func()
	calls [][]string
}

func (l *racingLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	l.calls = append(l.calls, keys)
	if len(l.calls) == 1 {
		l.race()
	}
	return l.inner.Lock(ctx, keys...)
}

func TestRebindFarmerUser_DueñoCambiaAntesDelBloqueo(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	oldOwner := &entity.User{Phone: "1"}
	racer := &entity.User{Phone: "2"}
	newOwner := &entity.User{Phone: "3"}
	for _, u := range []*entity.User{oldOwner, racer, newOwner} {
		require.NoError(t, repos.Users.Create(ctx, u))
	}
	fm := &entity.Farmer{UserID: &oldOwner.ID}
	require.NoError(t, repos.Farmers.Create(ctx, fm))

	locker := &racingLocker{inner: memory.NewKeyedLocker(), race: func() {
		require.NoError(t, repos.Farmers.SetUser(ctx, fm.ID, racer.ID))
	}}
	engine := binding.NewEngine(repos, store, locker, zerolog.Nop())

	got, err := engine.RebindFarmerUser(ctx, fm.ID, newOwner.ID)
	require.NoError(t, err)
	assert.True(t, got.BoundTo(newOwner.ID))
	require.Len(t, locker.calls, 2)
	assert.Contains(t, locker.calls[1], ports.UserKey(racer.ID))
	assert.NotContains(t, locker.calls[1], ports.UserKey(oldOwner.ID))
}

func TestRebindFarmerUser_MismoDueñoIdempotente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "1")
	fm := f.farmer(t, &u.ID)

	for i := 0; i < 2; i++ {
		got, err := f.engine.RebindFarmerUser(ctx, fm.ID, u.ID)
		require.NoError(t, err)
		assert.True(t, got.BoundTo(u.ID))
	}
	assert.Equal(t, 1, f.boundCount(t, u.ID))
}

func TestCreateFarmerProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "1")
	name := "李四"

	standalone, err := f.engine.CreateFarmerProfile(ctx, &name, nil)
	require.NoError(t, err)
	assert.False(t, standalone.IsBound())

	bound, err := f.engine.CreateFarmerProfile(ctx, &name, &u.ID)
	require.NoError(t, err)
	assert.True(t, bound.BoundTo(u.ID))
	roles, err := f.engine.FindRoles(ctx, u.ID, entity.RoleFarmer)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	_, err = f.engine.CreateFarmerProfile(ctx, &name, &u.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyHasFarmer)

	missing := int64(999)
	_, err = f.engine.CreateFarmerProfile(ctx, &name, &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	unbound, err := f.engine.ListFarmers(ctx, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, unbound, 1)
	assert.Equal(t, standalone.ID, unbound[0].ID)
}

func TestFindExistingByNaturalKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "13800138001")
	require.NoError(t, f.repos.Catalog.CreateCategories(ctx, []*entity.Category{{Name: "苹果"}}))

	users, err := f.engine.FindExistingByNaturalKeys(ctx, binding.KindUser, []string{"13800138001", "13800138009"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"13800138001": u.ID}, users)

	cats, err := f.engine.FindExistingByNaturalKeys(ctx, binding.KindCategory, []string{"苹果", "香蕉"})
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	_, err = f.engine.FindExistingByNaturalKeys(ctx, "desconocido", []string{"x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

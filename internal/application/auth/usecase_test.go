package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/agromarket-api/internal/application/account"
	"github.com/jhoicas/agromarket-api/internal/application/auth"
	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/memory"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/security"
	pkgjwt "github.com/jhoicas/agromarket-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

type fakePhones struct {
	phones map[string]string
}

func (f *fakePhones) ResolvePhone(_ context.Context, code string) (string, error) {
	p, ok := f.phones[code]
	if !ok {
		return "", errors.New("code inválido")
	}
	return p, nil
}

type fakeSMS struct {
	sent map[string]string
	err  error
}

func (f *fakeSMS) SendCode(_ context.Context, phone, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent[phone] = code
	return nil
}

type env struct {
	auth    *auth.UseCase
	account *account.UseCase
	store   *memory.Store
	codes   *memory.CodeCache
	sms     *fakeSMS
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	locker := memory.NewKeyedLocker()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	codes := memory.NewCodeCache()
	sms := &fakeSMS{sent: map[string]string{}}
	deps := auth.Deps{
		Repos:  store.Repos(),
		Tx:     store,
		Locker: locker,
		Hasher: hasher,
		Tokens: security.NewJWTIssuer(testSecret, "agromarket-test", 60),
		Codes:  codes,
		Phones: &fakePhones{phones: map[string]string{"wx-ok": "+86 13900000002"}},
		SMS:    sms,
	}
	return &env{
		auth:    auth.NewUseCase(deps, auth.Config{}, zerolog.Nop()),
		account: account.NewUseCase(store.Repos(), store, locker, hasher, zerolog.Nop()),
		store:   store,
		codes:   codes,
		sms:     sms,
	}
}

func TestAuthenticateByPassword_RoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p1 := "p1"
	acc, err := e.account.ProvisionAccount(ctx, account.ProvisionInput{
		Phone: "13800138001", Password: &p1, RoleType: entity.RoleOperator,
	})
	require.NoError(t, err)

	res, err := e.auth.AuthenticateByPassword(ctx, "13800138001", "p1")
	require.NoError(t, err)
	assert.Equal(t, acc.User.ID, res.UserID)
	assert.Nil(t, res.Account.User.Password)

	claims, err := pkgjwt.Parse(testSecret, res.Token)
	require.NoError(t, err)
	assert.True(t, claims.HasAnyRole(entity.RoleOperator))

	_, err = e.auth.AuthenticateByPassword(ctx, "13800138001", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestAuthenticateByPassword_Errores(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.auth.AuthenticateByPassword(ctx, "13800138009", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.account.ProvisionAccount(ctx, account.ProvisionInput{Phone: "13800138002", RoleType: entity.RoleFarmer})
	require.NoError(t, err)
	_, err = e.auth.AuthenticateByPassword(ctx, "13800138002", "x")
	assert.ErrorIs(t, err, domain.ErrNoPasswordSet)
}

func TestAuthenticateByVerificationCode_RegistraYConsume(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.codes.Set(ctx, "sms_code_13900000001", "5521", 0))

	res, err := e.auth.AuthenticateByVerificationCode(ctx, "13900000001", "5521")
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.NotNil(t, res.Account.User.Nickname)
	assert.Equal(t, "用户0001", *res.Account.User.Nickname)

	_, ok, err := e.codes.Get(ctx, "sms_code_13900000001")
	require.NoError(t, err)
	assert.False(t, ok, "el código es de un solo uso")

	_, err = e.auth.AuthenticateByVerificationCode(ctx, "13900000001", "5521")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	assert.Equal(t, 1, e.store.Counts().Users)
}

func TestAuthenticateByVerificationCode_CodigoIncorrecto(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.codes.Set(ctx, "sms_code_13900000001", "5521", 0))

	_, err := e.auth.AuthenticateByVerificationCode(ctx, "13900000001", "0000")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	_, ok, _ := e.codes.Get(ctx, "sms_code_13900000001")
	assert.True(t, ok, "un intento fallido no consume el código")
	assert.Equal(t, 0, e.store.Counts().Users)
}

func TestIssueVerificationCode_LuegoLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	ttl, err := e.auth.IssueVerificationCode(ctx, "13900000003")
	require.NoError(t, err)
	assert.Positive(t, ttl)
	code := e.sms.sent["13900000003"]
	require.Len(t, code, 4)
	assert.Empty(t, strings.Trim(code, "0123456789"))

	res, err := e.auth.AuthenticateByVerificationCode(ctx, "13900000003", code)
	require.NoError(t, err)
	assert.Equal(t, "13900000003", res.Account.User.Phone)
}

func TestIssueVerificationCode_FalloSMSNoDejaCodigo(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.sms.err = errors.New("proveedor caído")

	_, err := e.auth.IssueVerificationCode(ctx, "13900000003")
	require.Error(t, err)
	_, ok, _ := e.codes.Get(ctx, "sms_code_13900000003")
	assert.False(t, ok)
}

func TestAuthenticateByWeChat(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	res, err := e.auth.AuthenticateByWeChat(ctx, "wx-ok", auth.CodeSourcePhone)
	require.NoError(t, err)
	assert.Equal(t, "13900000002", res.Account.User.Phone)
	assert.True(t, res.Created)

	again, err := e.auth.AuthenticateByWeChat(ctx, "wx-ok", auth.CodeSourcePhone)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, again.UserID)
	assert.False(t, again.Created)

	_, err = e.auth.AuthenticateByWeChat(ctx, "wx-ok", auth.CodeSourceLogin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.auth.AuthenticateByWeChat(ctx, "wx-ok", "otro")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.auth.AuthenticateByWeChat(ctx, "", auth.CodeSourcePhone)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.auth.AuthenticateByWeChat(ctx, "wx-bad", auth.CodeSourcePhone)
	assert.Error(t, err)
}

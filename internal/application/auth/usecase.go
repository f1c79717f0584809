// Package auth autenticación por contraseña, código de verificación y WeChat.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
	"github.com/jhoicas/agromarket-api/pkg/phone"
)

// CodeKeyPrefix prefijo de la clave del código de verificación en la caché.
const CodeKeyPrefix = "sms_code_"

// Orígenes del código de WeChat.
const (
	CodeSourcePhone = "phone"
	CodeSourceLogin = "login"
)

// CodeKey clave de caché del código de verificación de phone.
func CodeKey(phone string) string { return CodeKeyPrefix + phone }

// DefaultNickname apodo de un usuario creado por inicio de sesión: "用户" + últimos cuatro dígitos.
func DefaultNickname(p string) string { return "用户" + phone.LastDigits(p, 4) }

// Config parámetros del código de verificación.
type Config struct {
	CodeTTL    time.Duration
	CodeLength int
}

// Deps colaboradores del caso de uso.
type Deps struct {
	Repos  repository.Repos
	Tx     repository.TxRunner
	Locker ports.Locker
	Hasher ports.PasswordHasher
	Tokens ports.TokenIssuer
	Codes  ports.CodeCache
	Phones ports.PhoneResolver
	SMS    ports.SMSSender
}

// Result identidad autenticada y su credencial.
type Result struct {
	UserID  int64
	Token   string
	Account *entity.Account
	Created bool
}

// UseCase casos de uso de autenticación.
type UseCase struct {
	d   Deps
	cfg Config
	log zerolog.Logger
}

// NewUseCase construye el caso de uso de auth.
func NewUseCase(d Deps, cfg Config, log zerolog.Logger) *UseCase {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 5 * time.Minute
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 4
	}
	return &UseCase{d: d, cfg: cfg, log: log.With().Str("component", "auth").Logger()}
}

// AuthenticateByPassword NotFound si no hay usuario, NoPasswordSet si la cuenta no tiene contraseña,
// InvalidCredential si no coincide.
func (uc *UseCase) AuthenticateByPassword(ctx context.Context, rawPhone, password string) (*Result, error) {
	p, err := normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	user, err := binding.UserByPhoneTx(ctx, uc.d.Repos, p)
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		return nil, domain.ErrNoPasswordSet
	}
	if !uc.d.Hasher.Matches(*user.Password, password) {
		return nil, domain.ErrInvalidCredential
	}
	acc, err := binding.AccountTx(ctx, uc.d.Repos, user)
	if err != nil {
		return nil, err
	}
	return uc.issue(acc, false, "password")
}

// AuthenticateByVerificationCode consume el código (un solo uso) y entra o registra por teléfono.
func (uc *UseCase) AuthenticateByVerificationCode(ctx context.Context, rawPhone, code string) (*Result, error) {
	p, err := normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, domain.ErrInvalidOrExpiredCode
	}
	var (
		acc     *entity.Account
		created bool
	)
	err = binding.RunLocked(ctx, uc.d.Locker, uc.d.Tx, []string{ports.PhoneKey(p)}, func(r repository.Repos) error {
		stored, ok, err := uc.d.Codes.Get(ctx, CodeKey(p))
		if err != nil {
			return fmt.Errorf("leer código: %w", err)
		}
		if !ok || stored != code {
			return domain.ErrInvalidOrExpiredCode
		}
		if err := uc.d.Codes.Delete(ctx, CodeKey(p)); err != nil {
			return fmt.Errorf("borrar código: %w", err)
		}
		acc, created, err = loginOrRegister(ctx, r, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return uc.issue(acc, created, "code")
}

// AuthenticateByWeChat solo acepta códigos de getPhoneNumber (codeSource "phone").
func (uc *UseCase) AuthenticateByWeChat(ctx context.Context, code, codeSource string) (*Result, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code requerido", domain.ErrInvalidInput)
	}
	switch codeSource {
	case CodeSourcePhone:
	case CodeSourceLogin:
		return nil, fmt.Errorf("%w: use el código de getPhoneNumber, no el de wx.login", domain.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: codeSource %q no soportado", domain.ErrInvalidInput, codeSource)
	}
	raw, err := uc.d.Phones.ResolvePhone(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolver teléfono de WeChat: %w", err)
	}
	p, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	var (
		acc     *entity.Account
		created bool
	)
	err = binding.RunLocked(ctx, uc.d.Locker, uc.d.Tx, []string{ports.PhoneKey(p)}, func(r repository.Repos) error {
		var err error
		acc, created, err = loginOrRegister(ctx, r, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return uc.issue(acc, created, "wechat")
}

// IssueVerificationCode genera un código numérico, lo guarda con TTL y lo entrega por SMS.
func (uc *UseCase) IssueVerificationCode(ctx context.Context, rawPhone string) (time.Duration, error) {
	p, err := normalize(rawPhone)
	if err != nil {
		return 0, err
	}
	code, err := randomDigits(uc.cfg.CodeLength)
	if err != nil {
		return 0, fmt.Errorf("generar código: %w", err)
	}
	if err := uc.d.Codes.Set(ctx, CodeKey(p), code, uc.cfg.CodeTTL); err != nil {
		return 0, fmt.Errorf("guardar código: %w", err)
	}
	if err := uc.d.SMS.SendCode(ctx, p, code); err != nil {
		_ = uc.d.Codes.Delete(ctx, CodeKey(p))
		return 0, fmt.Errorf("enviar código: %w", err)
	}
	uc.log.Debug().Str("phone", p).Msg("código de verificación emitido")
	return uc.cfg.CodeTTL, nil
}

func loginOrRegister(ctx context.Context, r repository.Repos, p string) (*entity.Account, bool, error) {
	user, err := r.Users.GetByPhone(ctx, p)
	if err != nil {
		return nil, false, domain.WrapQuery("buscar usuario por teléfono", err)
	}
	created := false
	if user == nil {
		nickname := DefaultNickname(p)
		user = &entity.User{Phone: p, Nickname: &nickname}
		if err := r.Users.Create(ctx, user); err != nil {
			return nil, false, domain.WrapQuery("crear usuario", err)
		}
		created = true
	}
	acc, err := binding.AccountTx(ctx, r, user)
	return acc, created, err
}

func (uc *UseCase) issue(acc *entity.Account, created bool, method string) (*Result, error) {
	token, err := uc.d.Tokens.Issue(acc.User.ID, entity.RoleTypes(acc.Roles))
	if err != nil {
		return nil, fmt.Errorf("emitir token: %w", err)
	}
	uc.log.Info().Int64("user_id", acc.User.ID).Str("method", method).Bool("created", created).Msg("login")
	return &Result{UserID: acc.User.ID, Token: token, Account: acc, Created: created}, nil
}

func normalize(raw string) (string, error) {
	p, err := phone.Normalize(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return p, nil
}

func randomDigits(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}

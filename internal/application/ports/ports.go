package ports

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Locker serializa procedimientos sobre el mismo sujeto (usuario, agricultor, teléfono).
// Lock bloquea hasta obtener todas las claves o hasta que ctx termine; release libera todas.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// CodeCache caché de códigos de verificación de corta duración.
// Get devuelve ok=false si la clave no existe o expiró.
type CodeCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PasswordHasher digest unidireccional de contraseñas.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Matches compara sin filtrar el motivo del fallo.
	Matches(hash, plain string) bool
}

// TokenIssuer emite la credencial bearer para una identidad resuelta.
type TokenIssuer interface {
	Issue(userID int64, roles []string) (string, error)
}

// PhoneResolver canjea un código de WeChat por el número de teléfono del usuario.
type PhoneResolver interface {
	ResolvePhone(ctx context.Context, code string) (string, error)
}

// SMSSender entrega el código de verificación al teléfono.
type SMSSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// Claves de bloqueo por sujeto.
func UserKey(id int64) string { return fmt.Sprintf("user:%d", id) }
func FarmerKey(id int64) string { return fmt.Sprintf("farmer:%d", id) }
func PhoneKey(phone string) string { return "phone:" + phone }

// SortKeys ordena y deduplica las claves. Todos los Locker adquieren en este orden.
func SortKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

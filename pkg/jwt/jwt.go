package jwt

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HasuraNamespace clave del bloque de claims que Hasura lee para autorizar.
const HasuraNamespace = "https://hasura.io/jwt/claims"

// DefaultRole rol base de cualquier usuario autenticado.
const DefaultRole = "user"

// rolePriority orden para elegir x-hasura-default-role.
var rolePriority = []string{"admin", "operator", "farmer"}

// HasuraClaims bloque de claims de sesión de Hasura.
type HasuraClaims struct {
	AllowedRoles []string `json:"x-hasura-allowed-roles"`
	DefaultRole  string   `json:"x-hasura-default-role"`
	UserID       string   `json:"x-hasura-user-id"`
}

// Claims claims estándar JWT más el bloque de Hasura.
// Los roles van en el token para que el middleware RBAC decida sin consultar el almacén.
type Claims struct {
	jwt.RegisteredClaims
	Hasura HasuraClaims `json:"https://hasura.io/jwt/claims"`
}

// Generate firma un token HS256 para userID con los roles dados (DefaultRole siempre incluido).
func Generate(secret string, userID int64, roles []string, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	id := strconv.FormatInt(userID, 10)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		Hasura: HasuraClaims{
			AllowedRoles: allowedRoles(roles),
			DefaultRole:  defaultRole(roles),
			UserID:       id,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve los claims.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}

// UserIDInt devuelve x-hasura-user-id como entero.
func (c *Claims) UserIDInt() (int64, error) {
	return strconv.ParseInt(c.Hasura.UserID, 10, 64)
}

// HasAnyRole indica si alguno de roles está entre los permitidos del token.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(c.Hasura.AllowedRoles, r) {
			return true
		}
	}
	return false
}

func allowedRoles(roles []string) []string {
	out := []string{DefaultRole}
	for _, r := range roles {
		if r != "" && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

func defaultRole(roles []string) string {
	for _, r := range rolePriority {
		if slices.Contains(roles, r) {
			return r
		}
	}
	return DefaultRole
}

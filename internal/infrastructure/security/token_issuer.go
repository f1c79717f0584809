package security

import (
	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/pkg/jwt"
)

var _ ports.TokenIssuer = (*JWTIssuer)(nil)

// JWTIssuer emite tokens con claims de Hasura.
type JWTIssuer struct {
	secret     string
	issuer     string
	expMinutes int
}

// NewJWTIssuer construye el emisor.
func NewJWTIssuer(secret, issuer string, expMinutes int) *JWTIssuer {
	return &JWTIssuer{secret: secret, issuer: issuer, expMinutes: expMinutes}
}

func (i *JWTIssuer) Issue(userID int64, roles []string) (string, error) {
	return jwt.Generate(i.secret, userID, roles, i.issuer, i.expMinutes)
}

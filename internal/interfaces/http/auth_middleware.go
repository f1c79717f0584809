package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agromarket-api/internal/application/dto"
	"github.com/jhoicas/agromarket-api/pkg/jwt"
)

// Locals keys para los claims y el UserID en Fiber.
const (
	LocalClaims = "jwt_claims"
	LocalUserID = "user_id"
)

// AuthMiddleware valida el Bearer Token JWT y deja claims y UserID en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		userID, err := claims.UserIDInt()
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "x-hasura-user-id inválido"})
		}
		c.Locals(LocalClaims, claims)
		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// RequireRole deja pasar si el token incluye alguno de roles en x-hasura-allowed-roles.
// Debe usarse después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión requerida"})
		}
		if !claims.HasAnyRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "se requiere uno de los roles: " + strings.Join(roles, ", "),
			})
		}
		return c.Next()
	}
}

// GetClaims devuelve los claims del contexto (después del middleware de auth).
func GetClaims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(LocalClaims).(*jwt.Claims)
	return claims
}

// GetUserID devuelve el UserID del contexto; 0 si no hay sesión.
func GetUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalUserID).(int64)
	return id
}

// GetRoles devuelve x-hasura-allowed-roles del token.
func GetRoles(c *fiber.Ctx) []string {
	if claims := GetClaims(c); claims != nil {
		return claims.Hasura.AllowedRoles
	}
	return nil
}

package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin may delete potholes.
const RoleAdmin = "admin"

// Claims are the JWT claims accepted by the API.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ValidateToken parses an HS256 token signed with secret.
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RequireRole rejects requests without a valid bearer token carrying role.
// An empty secret disables the check.
func RequireRole(secret, role string) fiber.Handler {
	if secret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			return errUnauthorized(c, "missing bearer token")
		}

		claims, err := ValidateToken(key, tokenString)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("rejected token", "error", err)
			return errUnauthorized(c, "invalid token")
		}
		if claims.Role != role {
			return errUnauthorized(c, "insufficient role")
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}

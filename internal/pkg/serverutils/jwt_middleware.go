// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const IdentityLocal = "user_id"

var (
	ErrMissingToken  = errors.New("missing token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingUserId = errors.New("token missing user_id")
)

// BearerToken reads the token from the Authorization header, falling back to
// the "token" query parameter (browsers cannot set headers on websocket upgrades).
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

// ParseIdentity validates an HMAC-signed token and returns its user_id claim.
func ParseIdentity(tokenStr string, secret []byte) (string, error) {
	if tokenStr == "" {
		return "", ErrMissingToken
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userId, ok := claims["user_id"].(string)
	if !ok || userId == "" {
		return "", ErrMissingUserId
	}
	return userId, nil
}

func NewJwtMiddleware(secret string) fiber.Handler {
	key := []byte(secret)
	return func(ctx *fiber.Ctx) error {
		userId, err := ParseIdentity(BearerToken(ctx), key)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "code": fiber.StatusUnauthorized, "message": err.Error()})
		}
		ctx.Locals(IdentityLocal, userId)
		return ctx.Next()
	}
}

// Identity returns the authenticated user id set by the middleware.
func Identity(ctx *fiber.Ctx) string {
	userId, _ := ctx.Locals(IdentityLocal).(string)
	return userId
}

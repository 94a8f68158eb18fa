package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"infra-assistant-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"not found", apperror.NotFound("op", "session not found"), 404, "session not found"},
		{"conflict", apperror.AlreadyExists("op", "shortcut exists"), 409, "shortcut exists"},
		{"invalid", apperror.InvalidInput("op", "rating must be between 1 and 5"), 400, "rating must be between 1 and 5"},
		{"unavailable", apperror.Unavailable("op", errors.New("dial tcp")), 503, "dependency unavailable"},
		{"internal hides detail", errors.New("pq: secret detail"), 500, "internal server error"},
		{"validation", &ValidationError{Fields: map[string]string{"title": "is required"}}, 400, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var parsed ErrorResponse
			require.NoError(t, json.Unmarshal(body, &parsed))
			assert.Equal(t, tt.wantMessage, parsed.Message)
		})
	}
}

func TestParseIdentity(t *testing.T) {
	secret := []byte("test-secret")
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "user-1"}).SignedString(secret)
	require.NoError(t, err)

	userId, err := ParseIdentity(signed, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userId)

	_, err = ParseIdentity(signed, []byte("other"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseIdentity("", secret)
	assert.ErrorIs(t, err, ErrMissingToken)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseIdentity(noUser, secret)
	assert.ErrorIs(t, err, ErrMissingUserId)
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		ChatSessionId uint   `validate:"required"`
		Chat          string `validate:"required,max=5"`
	}
	err := ValidateRequest(req{Chat: "too long"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["chat_session_id"])
	assert.Equal(t, "must be at most 5", verr.Fields["chat"])

	assert.NoError(t, ValidateRequest(req{ChatSessionId: 1, Chat: "ok"}))
}

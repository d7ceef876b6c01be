package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"facility-booking/constants"
	"facility-booking/logger"
	"facility-booking/repository/memory"
	"facility-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newApp(auth *Authenticator) *fiber.App {
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		return c.JSON(GetActor(c))
	}
	app.Get("/me", auth.RequireAuthentication(), whoami)
	app.Get("/staff", auth.RequireAuthentication(), RequireStaff(), whoami)
	app.Get("/admin", auth.RequirePermissions(constants.PermAdminFull), whoami)
	return app
}

func call(t *testing.T, app *fiber.App, path, token string) (int, types.ApiResponse, types.Actor) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	var envelope types.ApiResponse
	var actor types.Actor
	_ = json.Unmarshal(body, &envelope)
	_ = json.Unmarshal(body, &actor)
	return resp.StatusCode, envelope, actor
}

func TestIsAuthenticated(t *testing.T) {
	logger.SetOutput(io.Discard)
	repo := memory.New()
	app := newApp(NewAuthenticator(secret, "", repo))

	status, env, _ := call(t, app, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	status, _, _ = call(t, app, "/me", "not-a-jwt")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	expired := sign(t, jwt.MapClaims{"userId": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	status, _, _ = call(t, app, "/me", expired)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	token := sign(t, jwt.MapClaims{"userId": "u1", "role": "user", "userKind": "student", "email": "u1@ugm.ac.id"})
	status, _, actor := call(t, app, "/me", token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u1", actor.ID)
	assert.Equal(t, "student", actor.UserKind)

	u, err := repo.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@ugm.ac.id", u.Email)

	status, env, _ = call(t, app, "/staff", token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Code)

	status, _, _ = call(t, app, "/admin", token)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestStaffPermissionPromotesRole(t *testing.T) {
	logger.SetOutput(io.Discard)
	app := newApp(NewAuthenticator(secret, "", nil))

	token := sign(t, jwt.MapClaims{"sub": "s1", "permissions": []interface{}{constants.PermStaffFull}})
	status, _, actor := call(t, app, "/staff", token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "staff", actor.Role)

	admin := sign(t, jwt.MapClaims{"userId": "a1", "permissions": []interface{}{constants.PermAdminFull}})
	status, _, actor = call(t, app, "/admin", admin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "admin", actor.Role)
}

func TestCookieFallbackAndMissingSubject(t *testing.T) {
	logger.SetOutput(io.Discard)
	app := newApp(NewAuthenticator(secret, "", nil))

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", "access="+sign(t, jwt.MapClaims{"userId": "u9"}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	status, _, _ := call(t, app, "/me", sign(t, jwt.MapClaims{"role": "staff"}))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRSATokensRejectedWithoutKeyURL(t *testing.T) {
	auth := NewAuthenticator(secret, "", nil)
	_, err := auth.VerifyJWT(context.Background(), "eyJhbGciOiJSUzI1NiJ9.eyJ1c2VySWQiOiJ1MSJ9.c2ln")
	assert.Error(t, err)
}

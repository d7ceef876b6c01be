package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"facility-booking/apperror"
	"facility-booking/constants"
	"facility-booking/logger"
	"facility-booking/models/user"
	"facility-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const principalKey = "principal"

// Principal is what the identity provider asserts about the caller.
type Principal struct {
	UserID      string
	Role        string
	UserKind    string
	Email       string
	Name        string
	Permissions map[string]bool
}

func (p Principal) Actor() types.Actor {
	return types.Actor{ID: p.UserID, Role: p.Role, UserKind: p.UserKind, Email: p.Email, Name: p.Name}
}

// UserSync records the principal locally; repository.Repository satisfies it.
type UserSync interface {
	UpsertUser(ctx context.Context, u *user.User) error
}

type Authenticator struct {
	secret []byte
	keys   *keyCache
	users  UserSync
}

// NewAuthenticator accepts HS256 tokens when secret is set and RS256 tokens when publicKeyURL is set.
func NewAuthenticator(secret, publicKeyURL string, users UserSync) *Authenticator {
	a := &Authenticator{users: users}
	if secret != "" {
		a.secret = []byte(secret)
	}
	if publicKeyURL != "" {
		a.keys = &keyCache{url: publicKeyURL, ttl: time.Hour, client: &http.Client{Timeout: 10 * time.Second}}
	}
	return a
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func extractUserPermissionsFromClaims(claims jwt.MapClaims) map[string]bool {
	permissionSet := make(map[string]bool)
	userPermissions, ok := claims["permissions"].([]interface{})
	if !ok {
		return permissionSet
	}
	for _, p := range userPermissions {
		if perm, ok := p.(string); ok {
			permissionSet[perm] = true
		}
	}
	return permissionSet
}

// principalFromClaims reads {userId, role, userKind}; staff permissions promote the role.
func principalFromClaims(claims jwt.MapClaims) Principal {
	p := Principal{
		UserID:      claimString(claims, "userId", "user_id", "sub"),
		Role:        claimString(claims, "role"),
		UserKind:    claimString(claims, "userKind", "user_kind"),
		Email:       claimString(claims, "email"),
		Name:        claimString(claims, "name", "username"),
		Permissions: extractUserPermissionsFromClaims(claims),
	}
	switch {
	case p.Permissions[constants.PermAdminFull]:
		p.Role = user.RoleAdmin
	case p.Permissions[constants.PermStaffFull] && !user.IsStaffRole(p.Role):
		p.Role = user.RoleStaff
	case p.Role == "":
		p.Role = user.RoleUser
	}
	return p
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		// fall back to the session cookie
		if token := c.Cookies("access"); token != "" {
			return token, nil
		}
		return "", apperror.New(apperror.CodeUnauthorized, "Authorization token missing")
	}
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", apperror.New(apperror.CodeUnauthorized, "Invalid authorization header format")
	}
	return tokenParts[1], nil
}

func deny(c *fiber.Ctx, err *apperror.Error) error {
	status := apperror.HTTPStatus(err.Code)
	return c.Status(status).JSON(types.ApiResponse{
		Message: err.Message,
		Status:  status,
		Code:    string(err.Code),
	})
}

func hasAny(p Principal, required []string) bool {
	for _, perm := range required {
		if perm == constants.PermAny || p.Permissions[perm] {
			return true
		}
	}
	return false
}

// IsAuthenticated verifies the token and, when required is not "any", checks that the
// principal holds at least one of the required permissions.
func (a *Authenticator) IsAuthenticated(required []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return deny(c, apperror.As(err))
		}

		claims, err := a.VerifyJWT(c.UserContext(), token)
		if err != nil {
			logger.WithFields(logrus.Fields{"path": c.Path()}).WithError(err).Warn("⚠️ JWT verification failed")
			return deny(c, apperror.New(apperror.CodeUnauthorized, "Session expired. Login again."))
		}

		p := principalFromClaims(claims)
		if p.UserID == "" {
			return deny(c, apperror.New(apperror.CodeUnauthorized, "Session expired. Login again."))
		}
		if !hasAny(p, required) {
			return deny(c, apperror.New(apperror.CodeForbidden, "Insufficient permissions"))
		}

		a.syncUser(c.UserContext(), p)
		c.Locals("user", claims)
		c.Locals(principalKey, p)
		return c.Next()
	}
}

func (a *Authenticator) syncUser(ctx context.Context, p Principal) {
	if a.users == nil {
		return
	}
	err := a.users.UpsertUser(ctx, &user.User{
		ID:       p.UserID,
		Email:    p.Email,
		Name:     p.Name,
		Role:     p.Role,
		UserKind: p.UserKind,
		LastSeen: time.Now(),
	})
	if err != nil {
		logger.WithFields(logrus.Fields{"user_id": p.UserID}).WithError(err).Warn("⚠️ failed to sync user")
	}
}

// RequirePermissions creates a middleware with specific permissions
func (a *Authenticator) RequirePermissions(permissions ...string) fiber.Handler {
	return a.IsAuthenticated(permissions)
}

// RequireAuthentication only requires valid authentication without specific permissions
func (a *Authenticator) RequireAuthentication() fiber.Handler {
	return a.IsAuthenticated([]string{constants.PermAny})
}

// RequireStaff must run after an authentication middleware.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return deny(c, apperror.ErrUnauthorized)
		}
		if !user.IsStaffRole(p.Role) {
			return deny(c, apperror.New(apperror.CodeForbidden, "Staff access required"))
		}
		return c.Next()
	}
}

func GetPrincipal(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// GetActor returns the authenticated caller, or a zero Actor on public routes.
func GetActor(c *fiber.Ctx) types.Actor {
	p, _ := GetPrincipal(c)
	return p.Actor()
}

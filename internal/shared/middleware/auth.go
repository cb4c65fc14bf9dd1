package middleware

import (
	"context"
	"errors"
	"strings"

	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/response"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys set by AuthMiddleware
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// ErrInactiveUser is returned by a UserChecker for unknown or soft-deleted users.
var ErrInactiveUser = errors.New("user is inactive")

// UserChecker loads the current role of an active user.
// The role in the DB wins over the one embedded in the token.
type UserChecker interface {
	ActiveRole(ctx context.Context, userID uuid.UUID) (auth.Role, error)
}

// AuthMiddleware - xác thực JWT access token, load user và gắn auth.Identity vào request context
func AuthMiddleware(tokens *jwt.Manager, users UserChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "invalid user ID in token")
			return
		}

		role, err := users.ActiveRole(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, ErrInactiveUser) {
				logger.Error("auth: load user failed", err, map[string]interface{}{"user_id": userID.String()})
			}
			response.Unauthorized(c, "user not found or deactivated")
			return
		}

		identity := &auth.Identity{ID: userID, Role: role}
		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

// RequireRoles cho phép request đi tiếp khi caller có một trong các role
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.FromContext(c.Request.Context())
		if identity == nil {
			response.Unauthorized(c, "authentication required")
			return
		}
		if !identity.HasRole(roles...) {
			response.Forbidden(c, "insufficient role")
			return
		}
		c.Next()
	}
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"self-sim-server/internal/models"
)

// AuthMiddleware verifies the bearer token and stores the caller's identity
// in the request context.
func (h *APIHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			zap.L().Warn("Authorization header missing")
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			zap.L().Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		claims, err := h.authService.VerifyAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			zap.L().Warn("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set("user_id", claims.UserID)
		c.Set("access_uuid", claims.ID)
		c.Set("roles", claims.Roles)
		c.Next()
	}
}

// RequireAdminRoleMiddleware ensures the already-authenticated caller holds
// the admin role. Must run after AuthMiddleware.
func (h *APIHandler) RequireAdminRoleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rolesRaw, exists := c.Get("roles")
		roles, ok := rolesRaw.([]string)
		if !exists || !ok {
			zap.L().Error("Roles missing in context during admin check")
			handleServiceError(c, models.ErrForbidden)
			return
		}

		if !models.HasRole(roles, models.RoleAdmin) {
			userID, _ := c.Get("user_id")
			zap.L().Warn("Non-admin user attempted admin operation", zap.Any("userID", userID), zap.Strings("roles", roles))
			handleServiceError(c, models.ErrForbidden)
			return
		}
		c.Next()
	}
}

// getUserIDFromContext extracts the authenticated user's id set by
// AuthMiddleware. Aborts the request with 500 when the context is broken.
func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	userIDRaw, exists := c.Get("user_id")
	if !exists {
		zap.L().Error("User ID missing in context")
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    models.ErrCodeInternal,
			Message: "Internal error: missing user identity",
		})
		return uuid.Nil, errors.New("user_id missing in context")
	}
	userID, ok := userIDRaw.(uuid.UUID)
	if !ok {
		zap.L().Error("Invalid user ID type in context", zap.Any("userID", userIDRaw))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    models.ErrCodeInternal,
			Message: "Internal error: invalid user identity",
		})
		return uuid.Nil, errors.New("invalid user_id type in context")
	}
	return userID, nil
}

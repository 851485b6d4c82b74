// internal/middleware/auth.go
package middleware

import (
	"errors"
	"strings"

	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminAuthRequired resolves the bearer token to an admin username and
// stores it under utils.AdminUsernameKey.
func AdminAuthRequired(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "AUTH_HEADER_MISSING", i18n.T(lang, i18n.KeyAuthHeaderMissing))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 {
			utils.UnauthorizedResponse(c, "AUTH_HEADER_INVALID", i18n.T(lang, i18n.KeyAuthInvalidHeader))
			return
		}
		if !strings.EqualFold(parts[0], "bearer") {
			utils.UnauthorizedResponse(c, "AUTH_SCHEME_INVALID", i18n.T(lang, i18n.KeyAuthInvalidScheme))
			return
		}

		username, err := tokens.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, services.ErrExpiredToken):
				utils.UnauthorizedResponse(c, "TOKEN_EXPIRED", i18n.T(lang, i18n.KeyAuthTokenExpired))
			case errors.Is(err, services.ErrMissingToken), errors.Is(err, services.ErrInvalidToken):
				utils.UnauthorizedResponse(c, "TOKEN_INVALID", i18n.T(lang, i18n.KeyAuthInvalidToken))
			default:
				logrus.WithError(err).Error("Token verification failed")
				utils.InternalErrorResponse(c)
			}
			return
		}

		// Set admin info in context
		c.Set(utils.AdminUsernameKey, username)
		c.Next()
	}
}

// OptionalAdminAuth enforces AdminAuthRequired only when enabled.
func OptionalAdminAuth(enabled bool, tokens *services.TokenService) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return AdminAuthRequired(tokens)
}

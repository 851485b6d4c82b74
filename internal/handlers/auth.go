// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /api/admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, authResponse)
}

// POST /api/admin/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	username, exists := utils.GetAdminUsernameFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "TOKEN_INVALID", "")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), username); err != nil {
		respondError(c, err, "")
		return
	}

	utils.StatusSuccessResponse(c, i18n.T(lang, i18n.KeyAuthLogoutSuccess))
}

// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
	statsService *services.StatsService
}

func NewAdminHandler(adminService *services.AdminService, statsService *services.StatsService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		statsService: statsService,
	}
}

// POST /api/admin/create_user
func (h *AdminHandler) CreateUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, err := h.adminService.CreateAdmin(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.StatusSuccessResponse(c, i18n.T(lang, i18n.KeyAdminUserCreated, admin.Username))
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	admins, err := h.adminService.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"users": admins})
}

// DELETE /api/admin/users/:username
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	acting, exists := utils.GetAdminUsernameFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "TOKEN_INVALID", "")
		return
	}

	target := c.Param("username")
	if err := h.adminService.DeleteAdmin(c.Request.Context(), acting, target); err != nil {
		respondError(c, err, "")
		return
	}

	utils.StatusSuccessResponse(c, i18n.T(lang, i18n.KeyAdminUserDeleted, target))
}

// GET /api/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, stats)
}

// internal/handlers/license.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

type LicenseHandler struct {
	activationService *services.ActivationService
	licenseService    *services.LicenseService
}

func NewLicenseHandler(activationService *services.ActivationService, licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		activationService: activationService,
		licenseService:    licenseService,
	}
}

// POST /api/check_license
func (h *LicenseHandler) CheckLicense(c *gin.Context) {
	var req services.CheckLicenseRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.activationService.CheckLicense(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, i18n.KeyLicenseKeyNotFound)
		return
	}

	utils.SuccessResponse(c, status)
}

// POST /api/create_license
func (h *LicenseHandler) CreateLicense(c *gin.Context) {
	var req services.CreateLicenseRequest
	if !bindJSON(c, &req) {
		return
	}

	license, err := h.licenseService.CreateLicense(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, license)
}

// GET /api/licenses
func (h *LicenseHandler) ListLicenses(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	filter := services.LicenseFilter{
		PaginationParams: utils.GetPaginationParams(c, "created_at"),
	}
	if raw := c.Query("active_only"); raw != "" {
		activeOnly, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "active_only"), nil)
			return
		}
		filter.ActiveOnly = activeOnly
	}

	licenses, total, err := h.licenseService.ListLicenses(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SetPaginationHeaders(c, utils.CreatePaginationResult(total, filter.PaginationParams))
	utils.SuccessResponse(c, gin.H{"licenses": licenses})
}

// PUT /api/licenses/:key
func (h *LicenseHandler) UpdateLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.UpdateLicenseRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.licenseService.UpdateLicense(c.Request.Context(), c.Param("key"), &req); err != nil {
		respondError(c, err, "")
		return
	}

	utils.StatusSuccessResponse(c, i18n.T(lang, i18n.KeyLicenseUpdated))
}

// DELETE /api/licenses/:key
func (h *LicenseHandler) DeleteLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if err := h.licenseService.DeleteLicense(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, err, "")
		return
	}

	utils.StatusSuccessResponse(c, i18n.T(lang, i18n.KeyLicenseDeleted))
}

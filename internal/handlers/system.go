// internal/handlers/system.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/database"
	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

const healthTimeout = 2 * time.Second

type SystemHandler struct {
	db           *gorm.DB
	statsService *services.StatsService
}

func NewSystemHandler(db *gorm.DB, statsService *services.StatsService) *SystemHandler {
	return &SystemHandler{
		db:           db,
		statsService: statsService,
	}
}

// GET /api/status
func (h *SystemHandler) Status(c *gin.Context) {
	status, err := h.statsService.ServerStatus(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, status)
}

// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		logrus.WithError(err).Warn("Health check failed")
		lang := utils.GetLangFromContext(c)
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "STORAGE_UNHEALTHY", i18n.T(lang, i18n.KeyStorageUnhealthy), nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

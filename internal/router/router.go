// internal/router/router.go
package router

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/handlers"
	"github.com/awingconnect/license-server/internal/metrics"
	"github.com/awingconnect/license-server/internal/middleware"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, logger logrus.FieldLogger) *gin.Engine {
	// Initialize services
	hasher := utils.NewPasswordHasher(cfg.Password.Memory, cfg.Password.Iterations, cfg.Password.Parallelism)

	activationService := services.NewActivationService(db, logger)
	licenseService := services.NewLicenseService(db, logger)
	tokenService := services.NewTokenService(db, cfg.Session, logger)
	adminService := services.NewAdminService(db, hasher, logger)
	authService := services.NewAuthService(adminService, tokenService, logger)
	chatService := services.NewChatService(db, logger)
	statsService := services.NewStatsService(db)

	// Initialize handlers
	licenseHandler := handlers.NewLicenseHandler(activationService, licenseService)
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(adminService, statsService)
	chatHandler := handlers.NewChatHandler(chatService)
	systemHandler := handlers.NewSystemHandler(db, statsService)

	limiters := middleware.NewRateLimiters(cfg.RateLimit)
	adminAuth := middleware.AdminAuthRequired(tokenService)
	licenseAdmin := middleware.OptionalAdminAuth(cfg.Licensing.RequireAdminAuth, tokenService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())

	// Health check and metrics
	r.GET("/health", systemHandler.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(limiters.General.Middleware())
	{
		api.GET("/status", systemHandler.Status)

		// License routes
		api.POST("/check_license", limiters.Check.Middleware(), licenseHandler.CheckLicense)
		api.POST("/create_license", licenseAdmin, licenseHandler.CreateLicense)
		licenses := api.Group("/licenses")
		licenses.Use(licenseAdmin)
		{
			licenses.GET("", licenseHandler.ListLicenses)
			licenses.PUT("/:key", licenseHandler.UpdateLicense)
			licenses.DELETE("/:key", licenseHandler.DeleteLicense)
		}

		// Chat routes
		api.POST("/send_message", chatHandler.SendMessage)
		api.GET("/get_messages", chatHandler.GetMessages)
		api.POST("/messages/:id/mark_read", chatHandler.MarkRead)
		api.GET("/get_active_users", adminAuth, chatHandler.GetActiveUsers)
		api.POST("/mark_messages_read", adminAuth, chatHandler.MarkLicenseMessagesRead)

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.POST("/login", limiters.Login.Middleware(), authHandler.Login)

			protected := admin.Group("")
			protected.Use(adminAuth)
			{
				protected.POST("/logout", authHandler.Logout)
				protected.POST("/create_user", adminHandler.CreateUser)
				protected.GET("/users", adminHandler.ListUsers)
				protected.DELETE("/users/:username", adminHandler.DeleteUser)
				protected.GET("/stats", adminHandler.GetStats)
			}
		}
	}

	// Admin panel
	if dir := cfg.Server.StaticDir; dir != "" {
		r.StaticFile("/", filepath.Join(dir, "index.html"))
		r.StaticFile("/styles.css", filepath.Join(dir, "styles.css"))
		r.StaticFile("/script.js", filepath.Join(dir, "script.js"))
		r.Static("/static", dir)
	}

	return r
}

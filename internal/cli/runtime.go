// internal/cli/runtime.go
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/database"
	"github.com/awingconnect/license-server/internal/logger"
)

// runtime bundles what every command needs: configuration, the process
// logger and a migrated store.
type runtime struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
}

func openRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.Setup(cfg.Log)
	if cfg.GeneratedSecret {
		log.Warn("SECRET_KEY is not set; using an ephemeral secret, sessions will not survive a restart")
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &runtime{cfg: cfg, log: log, db: db}, nil
}

func (rt *runtime) Close() {
	database.Close(rt.db)
}

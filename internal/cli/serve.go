// internal/cli/serve.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/router"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

const (
	shutdownTimeout = 30 * time.Second
	purgeInterval   = time.Hour

	// defaultAdminPassword is only ever seeded in development.
	defaultAdminPassword = "admin123"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := i18n.Initialize(); err != nil {
		return fmt.Errorf("initialize i18n: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedBootstrapAdmin(ctx, rt); err != nil {
		return err
	}

	// Set Gin mode
	if rt.cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(rt.cfg.Server.Host, rt.cfg.Server.Port),
		Handler:      router.Initialize(rt.db, rt.cfg, rt.log),
		ReadTimeout:  time.Duration(rt.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(rt.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(rt.cfg.Server.IdleTimeout) * time.Second,
	}
	tokens := services.NewTokenService(rt.db, rt.cfg.Session, rt.log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		rt.log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				purged, err := tokens.PurgeExpired(gctx)
				if err != nil {
					rt.log.WithError(err).Warn("Failed to purge expired sessions")
					continue
				}
				if purged > 0 {
					rt.log.WithField("sessions", purged).Info("Purged expired sessions")
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	rt.log.Info("Server exited")
	return nil
}

// seedBootstrapAdmin creates the first admin account on an empty store.
// Without an explicit password the well known development credentials are
// only used in development.
func seedBootstrapAdmin(ctx context.Context, rt *runtime) error {
	username := rt.cfg.Bootstrap.AdminUsername
	password := rt.cfg.Bootstrap.AdminPassword
	usingDefault := false

	if password == "" {
		if !rt.cfg.IsDevelopment() {
			rt.log.Warn("BOOTSTRAP_ADMIN_PASSWORD is not set; no initial admin is seeded. Use `licensed admin create` if none exists")
			return nil
		}
		password = defaultAdminPassword
		usingDefault = true
	}

	hasher := utils.NewPasswordHasher(rt.cfg.Password.Memory, rt.cfg.Password.Iterations, rt.cfg.Password.Parallelism)
	admins := services.NewAdminService(rt.db, hasher, rt.log)

	created, err := admins.EnsureBootstrapAdmin(ctx, username, password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !created {
		return nil
	}

	entry := rt.log.WithField("username", username)
	if usingDefault {
		entry.Warn("Seeded development admin with the default password; change it before exposing this server")
	} else {
		entry.Info("Seeded initial admin")
	}
	return nil
}

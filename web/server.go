package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	dbt "wallet/db/db"
	applog "wallet/logger"
	"wallet/mq/mq"
	"wallet/store"
)

type ServiceConfig struct {
	IsDev bool
	Port  string

	Registry   *store.Registry
	SnapshotDB dbt.SnapshotDBWrapper
	MQ         mq.SendMessageQueueWrapper
	Now        func() time.Time
}

// NewRouter builds the engine with every route and middleware.
func NewRouter(cfg ServiceConfig) *gin.Engine {
	if !cfg.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := gin.New()
	setupMiddlewares(r, cfg)

	h := &handler{
		registry: cfg.Registry,
		queues:   cfg.MQ,
		now:      cfg.Now,
		upgrader: newUpgrader(cfg.IsDev),
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	wallets := r.Group("/wallets/:id/send")
	wallets.GET("", h.getState)
	wallets.POST("/actions", h.dispatchAction)
	wallets.POST("/actions/publish", h.publishAction)
	wallets.GET("/daily", h.getDaily)
	wallets.GET("/stream", h.stream)

	r.POST("/feature-flags", h.publishFeatureFlags)
	r.POST("/tokens/convert", h.convertTokens)
	r.GET("/snapshots", h.getSnapshots)

	return r
}

// Serve runs the HTTP server until ctx is done, then shuts it down.
func Serve(ctx context.Context, cfg ServiceConfig) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Web.Info().Str("addr", srv.Addr).Bool("dev", cfg.IsDev).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	applog.Web.Info().Msg("server stopped")
	return nil
}

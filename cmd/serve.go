package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/internal/router"
	"julianmorley.ca/con-plar/storefront/pkg/catalog"
	"julianmorley.ca/con-plar/storefront/pkg/session"
)

var (
	idleTimeout   time.Duration
	sweepInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&idleTimeout, "session-idle", 30*time.Minute, "drop in-memory carts unused for this long")
	serveCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", time.Minute, "how often idle carts are dropped")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Close(closeCtx); err != nil {
			logger.Warn("closing backend", zap.Error(err))
		}
	}()

	catalogService := catalog.NewService(b.gateway,
		catalog.WithCache(b.cache),
		catalog.WithPaging(cfg.CatalogPageSize, cfg.CatalogMaxPages),
		catalog.WithLogger(logger.Named("catalog")))

	sessions := session.NewManager(b.gateway, b.storeFor,
		session.WithLogger(logger.Named("cart")),
		session.WithIdleTimeout(idleTimeout))
	defer sessions.Close()
	go sessions.Run(ctx, sweepInterval)

	engine := router.New(router.Dependencies{
		Config:   cfg,
		Logger:   logger.Named("http"),
		Catalog:  catalogService,
		Sessions: sessions,
		Health:   b.health,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", zap.String("port", cfg.Port), zap.String("gateway", cfg.GatewayMode))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

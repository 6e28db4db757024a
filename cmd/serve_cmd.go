package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/config"
	"github.com/Vovarama1992/vidcatalog/internal/delivery"
	ws "github.com/Vovarama1992/vidcatalog/internal/delivery/ws"
	"github.com/Vovarama1992/vidcatalog/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	return cmd
}

func newLogger(level string) (*zap.Logger, *logger.ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	zcore, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return zcore, logger.NewZapLogger(zcore.Sugar()), nil
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	// LOGGER
	zcore, zl, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer zcore.Sync()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// STORES
	deps, err := openDeps(ctx, cfg, zl)
	if err != nil {
		zl.Log(logger.LogEntry{Level: "error", Message: "startup failed", Error: err})
		return err
	}
	defer deps.Close()

	// EVENTS
	hub := ws.NewHub(zl)
	publishers := domain.FanoutPublisher{}
	if deps.nats != nil {
		publishers = append(publishers, deps.nats)
	}
	if cfg.Events.LiveViews {
		publishers = append(publishers, hub)
	}

	// SERVICES
	catalog := domain.NewCatalogService(deps.store, deps.store, deps.views, publishers, zl)

	// ROUTER
	var live http.HandlerFunc
	if cfg.Events.LiveViews {
		live = ws.LiveViewsHandler(hub, catalog, zl)
	}

	router := delivery.NewRouter(delivery.RouterDeps{
		Catalog:     catalog,
		Log:         zl,
		Metrics:     delivery.NewMetrics(),
		Health:      deps.health,
		LiveViews:   live,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields:  map[string]any{"port": cfg.Server.Port, "store": cfg.Store.Backend, "views": cfg.Views.Backend},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		zl.Log(logger.LogEntry{Level: "info", Message: "shutting down"})
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Log(logger.LogEntry{Level: "error", Message: "server crashed", Error: err})
		return err
	}
	return nil
}

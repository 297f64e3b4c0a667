package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jengzang/salesmap-backend-go/internal/api"
	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/handler"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/registry"
	"github.com/jengzang/salesmap-backend-go/internal/repository"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	db, repo, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	states, cities, err := registry.LoadEmbedded()
	if err != nil {
		return err
	}
	logger.Log.Infof("Loaded %d states and %d cities", states.Len(), cities.Len())

	if cfg.Auth.AdminPassword == "" {
		logger.Log.Warn("auth.admin_password is empty; only stored users can log in")
	}

	store := session.NewStore(session.Options{
		Map:       cfg.MapOptions(),
		Chart:     cfg.Chart,
		Selection: cfg.Selection,
		States:    states,
		Cities:    cities,
	})
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	metrics := service.NewMetricService(repo)
	dashboard := service.NewDashboardService(metrics)
	access := service.NewAccessService(repository.NewUserRepository(db))
	admin := auth.Credentials{Username: cfg.Auth.AdminUsername, Password: cfg.Auth.AdminPassword}

	deps := api.Deps{
		Tokens:         tokens,
		Sessions:       store,
		Auth:           handler.NewAuthHandler(admin, access, tokens, store),
		Metrics:        handler.NewMetricHandler(metrics),
		Map:            handler.NewMapHandler(dashboard),
		Charts:         handler.NewChartHandler(dashboard),
		Reports:        handler.NewReportHandler(service.NewReportService(repo)),
		Access:         handler.NewAccessHandler(access),
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
	}
	if syncSvc, ok := newSyncService(repo); ok {
		deps.Sync = handler.NewSyncHandler(syncSvc, repo)
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           api.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// sessions idle past the token lifetime can never be used again
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := store.Expire(cfg.Auth.TokenTTL); n > 0 {
					logger.Log.Debugf("expired %d idle sessions", n)
				}
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server starting on %s", cfg.Server.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/heart-risk/config"
	"github.com/ariebrainware/heart-risk/endpoint"
	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/ariebrainware/heart-risk/predictor"
	"github.com/ariebrainware/heart-risk/templates"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	var port uint16
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  "Load the model, migrate the database and serve the prediction site until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if port != 0 {
				cfg.AppPort = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().Uint16Var(&port, "port", 0, "Port to listen on (overrides APPPORT)")
	return cmd
}

// buildRouter assembles the application from the configuration.
func buildRouter(cfg *config.Config) (*gin.Engine, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := config.ConnectDatabase()
	if err != nil {
		return nil, err
	}
	if err := model.Migrate(db); err != nil {
		return nil, err
	}

	if _, err := config.ConnectRedis(); err != nil {
		util.Logger().Warn("redis unavailable, rate limits are kept in process memory", zap.Error(err))
	}

	svc, err := predictor.LoadService(cfg.MetaPath, cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	tmpl, err := templates.Parse()
	if err != nil {
		return nil, err
	}

	return endpoint.NewRouter(endpoint.Dependencies{
		DB:        db,
		Predictor: svc,
		Sessions:  middleware.NewCookieStore(cfg.SessionSecret, cfg.AppEnv == "production"),
		Templates: tmpl,
	}), nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	router, err := buildRouter(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		util.Logger().Info("server listening", zap.String("addr", srv.Addr), zap.String("app", cfg.AppName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	util.Logger().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/config"
	v1 "github.com/pwronski/go-taskboard/internal/delivery/http/v1"
)

func newRouter(env string, handler v1.Handler) *gin.Engine {
	if env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	v1.RegisterRoutes(router, handler)
	return router
}

func listenAndServeHTTP(logger zerolog.Logger, cfg config.HTTPConfig, handler http.Handler) error {
	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("host", cfg.Host).
			Str("port", cfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for the interrupt signal to gracefully shut down
	// the server within the configured timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error().
			Err(err).
			Msg("failed to listen and serve http")
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		return err
	}
	logger.Info().Msg("shut down http server")
	return nil
}

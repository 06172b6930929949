package app

import (
	"context"
	"fmt"
	"os"

	"github.com/pwronski/go-taskboard/internal/auth"
	"github.com/pwronski/go-taskboard/internal/config"
	v1 "github.com/pwronski/go-taskboard/internal/delivery/http/v1"
	"github.com/pwronski/go-taskboard/internal/services"
	"github.com/pwronski/go-taskboard/internal/storage"
	"github.com/pwronski/go-taskboard/internal/storage/file"
	"github.com/pwronski/go-taskboard/internal/storage/postgres"
)

// Run wires configuration, logging, the selected storage backend, the
// services, and the HTTP server together, then serves until interrupted.
// All errors are logged before being returned.
func Run() error {
	logger := newDefaultLogger()

	cfg, err := readEnv()
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to read env")
		return err
	}
	logger.Info().
		Str("env", cfg.Env).
		Msg("read env")

	logger, err = newLogger(logger, cfg.Env)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to initialize logger")
		return err
	}

	ctx := context.Background()

	var (
		userStore storage.UserStore
		taskStore storage.TaskStore
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pool, err := connectPostgres(ctx, logger, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := postgres.NewStore(logger, pool)
		err = store.Migrate(ctx)
		if err != nil {
			logger.Error().
				Err(err).
				Msg("failed to migrate postgres storage")
			return err
		}
		userStore, taskStore = store, store
	case config.StorageDriverFile:
		err = os.MkdirAll(cfg.Storage.DataDir, 0o755)
		if err != nil {
			logger.Error().
				Err(err).
				Str("dir", cfg.Storage.DataDir).
				Msg("failed to create data dir")
			return err
		}

		store := file.NewStore(logger, cfg.Storage.DataDir)
		userStore, taskStore = store, store
	default:
		err = fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
		logger.Error().
			Err(err).
			Msg("failed to initialize storage")
		return err
	}
	logger.Info().
		Str("driver", cfg.Storage.Driver).
		Msg("initialized storage")

	tokens := auth.NewTokenManager(cfg.JWT.Issuer, []byte(cfg.JWT.SigningKey), cfg.JWT.TokenTTL)
	authService := services.NewAuthService(logger, userStore, tokens)
	taskService := services.NewTaskService(logger, taskStore)
	handler := v1.New(logger, authService, taskService)

	return listenAndServeHTTP(logger, cfg.HTTP, newRouter(cfg.Env, handler))
}

// The apiserver command runs the library backend as a JSON HTTP API:
// catalog and copy management, shelving, readers, loans, fines and staff
// login, all backed by the PostgreSQL store.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/arkadyvb/libris/example/apiserver/config"
	"github.com/arkadyvb/libris/example/apiserver/handlers"
	"github.com/arkadyvb/libris/library/oteladapters"
	"github.com/arkadyvb/libris/library/postgresengine"
	"github.com/arkadyvb/libris/library/staffauth"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if runErr := run(logger); runErr != nil {
		logger.Error("apiserver exited with error", "error", runErr.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return cfgErr
	}

	poolConfig, poolCfgErr := cfg.PGXPoolConfig()
	if poolCfgErr != nil {
		return poolCfgErr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
	if poolErr != nil {
		return poolErr
	}
	defer pool.Close()

	store, storeErr := postgresengine.NewStoreFromPGXPool(pool,
		postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLoggerWithHandler(logger.Handler())),
	)
	if storeErr != nil {
		return storeErr
	}

	if migrateErr := store.Migrate(ctx); migrateErr != nil {
		return migrateErr
	}
	if warehouseErr := store.EnsureDefaultWarehouse(ctx); warehouseErr != nil {
		return warehouseErr
	}

	tokens, tokensErr := staffauth.NewTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenIssuer, cfg.TokenTTL)
	if tokensErr != nil {
		return tokensErr
	}

	app := fiber.New(fiber.Config{
		AppName:     "libris",
		JSONEncoder: jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder: jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	handlers.NewHandlers(store, tokens).Register(app)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	logger.Info("apiserver listening", "addr", cfg.HTTPAddr)

	return app.Listen(cfg.HTTPAddr)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bookstore/internal/ratelimit"
	"bookstore/internal/util"
	"bookstore/pkg/store"
	"bookstore/services/catalog/internal/app"
	"bookstore/services/catalog/internal/config"
	"bookstore/services/catalog/internal/server"
)

func main() {
	_ = godotenv.Load(".env.local")

	configPath := flag.String("config", "", "path to config.yaml (default $CATALOG_CONFIG or ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger("catalog", cfg.LogLevel)

	bookStore, ping, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer closeStore()

	if cfg.SeedFile != "" {
		books, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("failed to load seed file: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = bookStore.SaveBooks(ctx, books)
		cancel()
		if err != nil {
			log.Fatalf("failed to seed books: %v", err)
		}
		logger.Info("catalog seeded", "file", cfg.SeedFile, "books", len(books))
	}

	appCore, err := app.New(app.Config{Store: bookStore, MaxPageSize: cfg.MaxPageSize})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	limiter, err := newLimiter(cfg)
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                appCore,
		Limiter:            limiter,
		TrustedProxies:     trusted,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Ping:               ping,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("catalog server listening", "addr", addr, "store", cfg.Store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

func openStore(cfg config.FileConfig) (store.Store, func(context.Context) error, func(), error) {
	if cfg.Store == config.StoreMemory {
		return store.NewMemoryStore(), nil, func() {}, nil
	}
	gormStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return gormStore, gormStore.Ping, func() { _ = gormStore.Close() }, nil
}

func newLimiter(cfg config.FileConfig) (ratelimit.Limiter, error) {
	if cfg.RateLimitPerMinute <= 0 {
		return nil, nil
	}
	if cfg.RedisAddr != "" {
		return ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "bookstore:ratelimit:catalog", cfg.RateLimitPerMinute, time.Minute)
	}
	return ratelimit.NewLocalLimiter(cfg.RateLimitPerMinute, time.Minute)
}

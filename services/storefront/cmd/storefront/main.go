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

	"bookstore/internal/util"
	"bookstore/pkg/cart"
	"bookstore/pkg/catalogclient"
	"bookstore/services/storefront/internal/config"
	"bookstore/services/storefront/internal/server"
	"bookstore/services/storefront/internal/session"
)

const categoriesTTL = 5 * time.Minute

func main() {
	_ = godotenv.Load(".env.local")

	configPath := flag.String("config", "", "path to config.yaml (default $STOREFRONT_CONFIG or ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger("storefront", cfg.LogLevel)

	sessions, err := session.NewManager(cfg.SessionSecret, sessionTTL, cfg.CookieSecure)
	if err != nil {
		log.Fatalf("failed to init sessions: %v", err)
	}

	storage, ping, err := openStorage(cfg, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init session storage: %v", err)
	}

	httpServer, err := server.New(server.Config{
		Catalog:       catalogclient.NewClient(cfg.CatalogServiceURL),
		Storage:       storage,
		Sessions:      sessions,
		Ping:          ping,
		CategoriesTTL: categoriesTTL,
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

	slog.Info("storefront listening", "addr", addr, "catalog", cfg.CatalogServiceURL, "sessionStore", cfg.SessionStore)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

// openStorage returns the per-session key/value storage. Redis keys expire after the session TTL.
func openStorage(cfg config.FileConfig, ttl time.Duration) (cart.Storage, func(context.Context) error, error) {
	if cfg.SessionStore == config.SessionStoreMemory {
		return cart.NewMemoryStorage(), nil, nil
	}
	storage := cart.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, "bookstore:session", ttl)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := storage.Ping(ctx); err != nil {
		return nil, nil, err
	}
	return storage, storage.Ping, nil
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
	"github.com/stevnathans/hustlecare-sub000/internal/catalog"
	"github.com/stevnathans/hustlecare-sub000/internal/config"
	"github.com/stevnathans/hustlecare-sub000/internal/db"
	"github.com/stevnathans/hustlecare-sub000/internal/events"
	httpapi "github.com/stevnathans/hustlecare-sub000/internal/http"
	"github.com/stevnathans/hustlecare-sub000/internal/sequence"
	"github.com/stevnathans/hustlecare-sub000/internal/snapshot"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[listbuilder-service] ", log.LstdFlags|log.Lshortfile)

	if cfg.ListDBDSN == "" {
		logger.Fatal("LIST_DB_DSN not set")
	}
	if err := db.RunMigrations(cfg.ListDBDSN, logger); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.ListDBDSN)
	if err != nil {
		logger.Fatalf("open db pool: %v", err)
	}
	defer pool.Close()

	listRepo := snapshot.NewPostgresRepository(pool)

	store, closeStore, err := newCartStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("create cart store: %v", err)
	}
	defer closeStore()

	var publisher httpapi.SharePublisher
	if cfg.RabbitURL != "" {
		conn, err := events.DialRabbit(cfg.RabbitURL)
		if err != nil {
			logger.Fatalf("dial rabbitmq: %v", err)
		}
		defer conn.Close()

		p, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{})
		if err != nil {
			logger.Fatalf("create publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Printf("RABBITMQ_URL not set, ListShared events disabled")
	}

	var resolver httpapi.ProductResolver
	if cfg.CatalogURL != "" {
		c, err := catalog.NewClient(cfg.CatalogURL, &http.Client{Timeout: cfg.RequestTimeout})
		if err != nil {
			logger.Fatalf("create catalog client: %v", err)
		}
		resolver = c
	} else {
		logger.Printf("CATALOG_URL not set, add requests must carry full product data")
	}

	handler := httpapi.NewListHandler(store, listRepo, publisher, resolver, cfg.PublicBaseURL, cfg.RequestTimeout, logger)
	router := httpapi.NewRouter(handler, cfg.CORSAllowOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second, // PDF generation can take a while for big lists
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listbuilder-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
}

func newCartStore(ctx context.Context, cfg config.Config) (cart.Store, func(), error) {
	if cfg.CartStore == "redis" {
		rs, err := cart.NewRedisStore(ctx, cfg.RedisAddr, cfg.CartTTL)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	}
	return cart.NewMemoryStore(), func() {}, nil
}

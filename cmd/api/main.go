package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vitrine/api/internal/app"
	"vitrine/api/internal/cache"
	"vitrine/api/internal/config"
	"vitrine/api/internal/content"
	"vitrine/api/internal/media"
	"vitrine/api/internal/storage"
	"vitrine/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	objectStore, err := storage.NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageBucket,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageUseSSL,
		cfg.StoragePublicURL,
	)
	if err != nil {
		log.Fatalf("object storage client failed: %v", err)
	}
	if err := objectStore.Ping(ctx); err != nil {
		log.Printf("WARNING: object storage not reachable yet: %v", err)
	}

	contentSvc := content.NewService(dataStore)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis content cache")
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisCache.Close()
		contentSvc.SetCache(redisCache)
	}

	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	synchronizer := content.NewSynchronizer(contentSvc)
	contentSvc.SetNotifier(synchronizer)
	go synchronizer.Run(syncCtx)

	mediaSvc := media.NewService(dataStore, objectStore)

	service := app.New(cfg, contentSvc, mediaSvc, dataStore)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Vitrine API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

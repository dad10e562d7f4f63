package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arxos/crystalgeo/internal/api"
	"github.com/arxos/crystalgeo/internal/applog"
	"github.com/arxos/crystalgeo/internal/authn"
	"github.com/arxos/crystalgeo/internal/cache"
	"github.com/arxos/crystalgeo/internal/config"
	"github.com/arxos/crystalgeo/internal/store"
)

func main() {
	log := applog.New()
	log.Println("starting crystalgeo server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	adminUser := os.Getenv("CRYSTALGEO_ADMIN_USER")
	if adminUser == "" {
		adminUser = "admin"
	}
	adminPass := os.Getenv("CRYSTALGEO_ADMIN_PASSWORD")
	authnMgr, err := authn.NewManager(cfg.JWT, adminUser, adminPass)
	if err != nil {
		log.Fatalf("failed to initialize auth: %v", err)
	}

	// Redis and Postgres are optional at runtime: the server degrades to an
	// uncached, audit-free mode when either is unreachable at startup.
	var c *cache.Cache
	if os.Getenv("CRYSTALGEO_REDIS_DISABLED") == "" {
		c, err = cache.New(cfg.Redis, log.Sub("cache"))
		if err != nil {
			log.Printf("redis unavailable, running without cache: %v", err)
			c = nil
		} else {
			defer c.Close()
		}
	}

	var st *store.Store
	if os.Getenv("CRYSTALGEO_DB_DISABLED") == "" {
		st, err = store.Open(cfg.Database, log.Sub("store"))
		if err != nil {
			log.Printf("postgres unavailable, running without persistence: %v", err)
			st = nil
		} else {
			defer st.Close()
		}
	}

	server := api.NewServer(log, authnMgr, c, st, cfg.RateLimit)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}

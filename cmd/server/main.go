package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/jkromann/virkdata/internal/auth"
	"github.com/jkromann/virkdata/internal/config"
	"github.com/jkromann/virkdata/internal/db"
	"github.com/jkromann/virkdata/internal/export"
	"github.com/jkromann/virkdata/internal/ingestion"
	"github.com/jkromann/virkdata/internal/leads"
	"github.com/jkromann/virkdata/internal/metrics"
	"github.com/jkromann/virkdata/internal/middleware"
	"github.com/jkromann/virkdata/internal/registry"
	"github.com/jkromann/virkdata/internal/repository"
	"github.com/jkromann/virkdata/internal/timeline"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Setup payload cache (optional)
	cache, err := registry.NewCache(ctx, cfg.Redis)
	if err != nil {
		log.Printf("Payload cache unavailable, continuing without it: %v", err)
	}
	defer cache.Close()

	m := metrics.New()

	// Create repositories
	snapshotRepo := repository.NewCompanySnapshotRepository(conn.Pool)
	leadRepo := repository.NewLeadRepository(conn.Pool)

	// Create services
	client := registry.NewClient(cfg.Registry, cache, m)
	timelineService := timeline.NewService(client,
		timeline.WithSnapshots(snapshotRepo),
		timeline.WithMetrics(m),
	)
	ingestService := ingestion.NewService(snapshotRepo)

	// Create HTTP handlers
	timelineHandler := timeline.NewHTTPHandler(timelineService, snapshotRepo)
	searchHandler := registry.NewSearchHandler(client)
	exportHandler := export.NewHTTPHandler(timelineService, export.NewService())
	ingestHandler := ingestion.NewHTTPHandler(ingestService)
	leadsHandler := leads.NewHTTPHandler(leadRepo, snapshotRepo)
	adminOnly := func(next http.Handler) http.Handler {
		return auth.RequireAdminKey(cfg.Admin.APIKey, next)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/search", searchHandler)
	mux.Handle("/api/companies", timelineHandler)
	mux.Handle("/api/companies/", timelineHandler)
	mux.Handle("/api/export/", exportHandler)
	mux.Handle("/api/ingest", adminOnly(ingestHandler))
	mux.Handle("/api/admin/", adminOnly(leadsHandler))
	mux.Handle("/api/leads/", adminOnly(leadsHandler))
	// Lead capture is public; everything else on the lead surface is admin.
	adminLeads := adminOnly(leadsHandler)
	mux.Handle("/api/leads", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			leadsHandler.ServeHTTP(w, r)
			return
		}
		adminLeads.ServeHTTP(w, r)
	}))
	mux.Handle("/metrics", promhttp.Handler())

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(middleware.LoggingMiddleware(mux))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting API server on %s", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/username/curvaabc/backend/src/abc"
	"github.com/username/curvaabc/backend/src/config"
	"github.com/username/curvaabc/backend/src/handlers"
	"github.com/username/curvaabc/backend/src/logger"
	"github.com/username/curvaabc/backend/src/services"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("CurvaABC backend server starting...")

	reportCache := cache.New(config.Cfg.CacheExpiration, config.Cfg.CacheCleanupInterval)

	engine := abc.NewEngine()
	analysisService := services.NewAnalysisService(engine, reportCache)
	exportService := services.NewExportService()

	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	exportHandler := handlers.NewExportHandler(analysisService, exportService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(handlers.EnableCORS(config.Cfg.AllowedOrigins))
	r.Use(handlers.RateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "CurvaABC Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HandleHealth)

		r.Route("/analysis", func(r chi.Router) {
			r.Post("/upload", analysisHandler.HandleUpload)
			r.Get("/{id}", analysisHandler.HandleGetAnalysis)
			r.Delete("/{id}", analysisHandler.HandleDeleteAnalysis)
			r.Get("/{id}/summary", analysisHandler.HandleGetSummary)
			r.Get("/{id}/chart", analysisHandler.HandleGetChart)
			r.Get("/{id}/export/xlsx", exportHandler.HandleExportXLSX)
			r.Get("/{id}/export/csv", exportHandler.HandleExportCSV)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}

// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-triage/internal/app"
	"github.com/iyunix/go-triage/internal/config"
	"github.com/iyunix/go-triage/internal/middleware"
	"github.com/iyunix/go-triage/internal/ratelimit"
	"github.com/iyunix/go-triage/internal/services"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := config.Load()
	logger := services.NewLoggerWithLevel(app.ServiceName, cfg.Environment, cfg.LogLevel)

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize application: %v", err)
	}

	// The corpus must be in the index before the first detection.
	report, err := application.LoadCorpus(ctx, false)
	if err != nil {
		application.Close(ctx)
		log.Fatalf("FATAL: Failed to load corpus: %v", err)
	}
	logger.Info("corpus ready",
		"skipped", report.Skipped,
		"inserted", report.Inserted,
		"invalid", report.Invalid,
		"duration", report.Duration.String(),
	)

	limitCfg := ratelimit.DefaultAPIConfig(cfg.RateLimitPerMinute)
	limitCfg.TrustProxyHeaders = cfg.TrustProxyHeaders
	limiter := ratelimit.NewMemoryRateLimiter(limitCfg)
	defer limiter.Close()

	h := application.Handler

	// --- Router Setup ---
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(middleware.RecoverPanic(logger))
	r.Use(middleware.LoggingMiddleware(logger))

	// --- Public Routes ---
	r.HandleFunc("/", h.Root).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/ai-health", h.AIHealth).Methods("GET")

	// --- Inference Routes ---
	inference := r.PathPrefix("/").Subrouter()
	inference.Use(middleware.RateLimitMiddleware(limiter, "inference", logger))
	inference.HandleFunc("/detect_disease", h.DetectDisease).Methods("POST")
	inference.HandleFunc("/detect_dept", h.DetectDept).Methods("GET", "POST")
	inference.HandleFunc("/diagnosis/symptom-check", h.SymptomCheck).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	// --- Server Configuration ---
	port := ":8000"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
	}

	logger.Info("server starting", "addr", port, "environment", cfg.Environment)

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("application close failed", "error", err)
	}
	logger.Info("server stopped")
}

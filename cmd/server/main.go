package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/canvas/internal/auth"
	"github.com/inamate/canvas/internal/collab"
	"github.com/inamate/canvas/internal/config"
	"github.com/inamate/canvas/internal/export"
	"github.com/inamate/canvas/internal/layout"
	mw "github.com/inamate/canvas/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	var solver layout.Solver = layout.NewGridSolver(cfg.Layout.Gap, cfg.Layout.RowWidth)
	if cfg.Layout.ServiceURL != "" {
		remote := layout.NewHTTPSolver(cfg.Layout.ServiceURL)
		remote.Token = cfg.Layout.ServiceToken
		solver = remote
		slog.Info("using remote layout solver", "url", cfg.Layout.ServiceURL)
	}
	layoutHandler := layout.NewHandler(solver)

	raster, err := export.NewRasterizer()
	if err != nil {
		slog.Error("create rasterizer", "error", err)
		os.Exit(1)
	}
	exportHandler := export.NewHandler(raster, cfg.Stage.EngineOptions())

	hub := collab.NewHub()
	go hub.Run()
	wsHandler := collab.NewHandler(hub, authService, originHosts(cfg.AllowedOrigins))

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Auth routes (public)
	r.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")

	// Export endpoint (public, used by the playground)
	r.HandleFunc("/export/png", exportHandler.ExportPNG).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/layout", layoutHandler.Solve).Methods("POST")
	api.HandleFunc("/stages", wsHandler.CreateStage).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/stage/{stageId}", wsHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Close websocket clients before the listener drains.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// originHosts turns CORS origins into websocket origin patterns, which
// match on host only.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			hosts = append(hosts, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			hosts = append(hosts, o)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

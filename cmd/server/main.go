package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/internal/advisor/external"
	"github.com/freeeve/polforge/api/internal/auth"
	"github.com/freeeve/polforge/api/internal/catalog"
	"github.com/freeeve/polforge/api/internal/config"
	"github.com/freeeve/polforge/api/internal/handler"
	"github.com/freeeve/polforge/api/internal/logger"
	"github.com/freeeve/polforge/api/internal/middleware"
	"github.com/freeeve/polforge/api/internal/service"
)

const (
	rateLimitIdle  = 10 * time.Minute
	rateLimitSweep = time.Minute
)

func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("store", cfg.Store).Int("maxTurns", cfg.MaxTurns).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("Store connection failed")
	}
	defer st.Close()

	// Region catalog
	cat := catalog.LoadOrDefault(cfg.CatalogPath)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	var google *auth.OAuthProvider
	if cfg.Google.Enabled() {
		google = auth.NewGoogleOAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	}

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	opts := service.Options{
		MaxTurns:      cfg.MaxTurns,
		ThinkingDelay: cfg.ThinkingDelay,
		IdleTTL:       cfg.IdleTTL,
		Catalog:       cat,
	}
	if cfg.External.Enabled() {
		opts.External = external.New(ctx, cfg.External)
		log.Info().Str("url", cfg.External.AdvisorURL).Msg("External advisor enabled")
	}
	gameSvc := service.NewGameService(st.games, st.snapshots, st.cache, wsHub, opts)

	// Idle eviction (Redis expiry events when available, sweeping always)
	idleListener := service.NewIdleListener(st.rdb, gameSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(google, jwtMgr, st.users, cfg.DevMode)
	userHandler := handler.NewUserHandler(st.users)
	gameHandler := handler.NewGameHandler(gameSvc)
	catalogHandler := handler.NewCatalogHandler(cat)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr, gameSvc)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)
	mux.HandleFunc("POST /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("GET /catalog/regions", catalogHandler.ListRegions)
	api.HandleFunc("GET /catalog/regions/{id}", catalogHandler.GetRegion)
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("POST /games/{id}/resume", gameHandler.ResumeGame)
	api.HandleFunc("POST /games/{id}/actions", gameHandler.SubmitAction)
	api.HandleFunc("POST /games/{id}/turn/end", gameHandler.EndTurn)
	api.HandleFunc("GET /games/{id}/recommendations", gameHandler.Recommendations)
	api.HandleFunc("GET /games/{id}/analytics", gameHandler.Analytics)
	api.HandleFunc("GET /games/{id}/events", gameHandler.Events)
	api.HandleFunc("GET /games/{id}/report", gameHandler.Report)
	api.HandleFunc("GET /games/{id}/shadow", gameHandler.Shadow)
	api.HandleFunc("PUT /games/{id}/shadow/allocation", gameHandler.SetShadowAllocation)
	api.HandleFunc("POST /games/{id}/shadow/operations", gameHandler.ExecuteCovertOp)
	api.HandleFunc("POST /games/{id}/shadow/denials", gameHandler.AttemptDenial)
	api.HandleFunc("POST /games/{id}/shadow/shell", gameHandler.EstablishShellCompany)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimitIdle)
	root := middleware.Chain(mux,
		middleware.Recover,
		middleware.Logger,
		middleware.CORS("*"),
		limiter.Middleware,
		middleware.JSON,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Recover active games (reload unfinished races and resume opponent turns)
	if err := gameSvc.RecoverActiveGames(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	go idleListener.Start(ctx)
	go sweepLimiter(ctx, limiter)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	if err := gameSvc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to save live games on shutdown")
	}
	log.Info().Msg("Server stopped")
}

func sweepLimiter(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(rateLimitSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.Sweep(now)
		}
	}
}

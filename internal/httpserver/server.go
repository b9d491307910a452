package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fdg312/food-advisor/internal/ai"
	"github.com/fdg312/food-advisor/internal/analysis"
	"github.com/fdg312/food-advisor/internal/auth"
	"github.com/fdg312/food-advisor/internal/blob"
	"github.com/fdg312/food-advisor/internal/config"
	"github.com/fdg312/food-advisor/internal/dbmigrate"
	"github.com/fdg312/food-advisor/internal/reports"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/fdg312/food-advisor/internal/storage/memory"
	"github.com/fdg312/food-advisor/internal/storage/postgres"
	"github.com/fdg312/food-advisor/internal/users"
	"github.com/rs/zerolog"
)

// Options overrides collaborators, mostly for tests.
type Options struct {
	Storage  storage.Storage
	AIClient ai.Client
}

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	logger         zerolog.Logger
	mux            *http.ServeMux
	storage        storage.Storage
	aiClient       ai.Client
	blobStore      blob.Store
	blobMode       string
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New создаёт новый HTTP сервер
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Server, error) {
	s := &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		storage:  opts.Storage,
		aiClient: opts.AIClient,
	}

	if s.storage == nil {
		s.initStorage(ctx)
	}
	if s.aiClient == nil {
		s.aiClient = ai.NewClient(cfg.AI, logger)
	}
	if err := s.initBlobStore(ctx); err != nil {
		s.storage.Close()
		return nil, err
	}

	s.routes()
	return s, nil
}

// initStorage выбирает Postgres при заданном DATABASE_URL, иначе память
func (s *Server) initStorage(ctx context.Context) {
	if s.config.DatabaseURL == "" {
		s.logger.Info().Str("storage", "memory").Msg("using in-memory storage")
		s.storage = memory.New()
		return
	}

	if s.config.RunMigrationsOnStartup {
		s.runMigrations(ctx)
	}

	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		s.logger.Error().Err(err).Msg("postgres connection failed, falling back to in-memory storage")
		s.storage = memory.New()
		return
	}

	s.logger.Info().Str("storage", "postgres").Msg("postgres connected")
	s.storage = pgStorage
}

func (s *Server) runMigrations(ctx context.Context) {
	if err := dbmigrate.Migrate(ctx, s.config, "up", "", s.logger); err != nil {
		s.logger.Error().Err(err).Msg("startup migrations failed")
		return
	}
	s.logger.Info().Msg("startup migrations applied")
}

// initBlobStore keeps report bytes in S3 when configured, otherwise in memory.
func (s *Server) initBlobStore(ctx context.Context) error {
	store, mode, err := blob.NewBlobStore(ctx, s.config.Blob, s.logger)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}
	if store == nil {
		store = blob.NewMemoryStore()
	}
	s.blobStore = store
	s.blobMode = mode
	return nil
}

// routes регистрирует маршруты
func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Users API
	userService := users.NewService(s.storage, s.storage, s.logger)
	userHandler := users.NewHandler(userService)
	s.mux.HandleFunc("POST /v1/users", userHandler.HandleRegister)
	s.mux.HandleFunc("GET /v1/users", userHandler.HandleList)
	s.mux.HandleFunc("GET /v1/users/{id}", userHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/users/{id}", userHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/users/{id}", userHandler.HandleDelete)

	// Auth API
	authService := auth.NewService(s.config, s.storage, s.logger)
	authHandler := auth.NewHandlers(authService, userService)
	if authService.Enabled() {
		s.authMiddleware = auth.NewMiddleware(s.config.AuthRequired, authService, s.logger)
	}
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	s.mux.HandleFunc("GET /v1/me", authHandler.HandleMe)

	// Analyses API
	analysisService := analysis.NewService(s.storage, s.storage, s.aiClient, s.logger)
	analysisHandler := analysis.NewHandler(analysisService, s.config.PortionDefaultGrams)
	s.mux.HandleFunc("POST /v1/analyses", analysisHandler.HandleAnalyze)
	s.mux.HandleFunc("GET /v1/analyses", analysisHandler.HandleHistory)

	// Reports API
	s3cfg := s.config.Blob.S3
	reportsService := reports.NewService(
		s.storage,
		s.storage,
		reports.NewGenerator(s.storage, s.storage, s.config.ReportsMaxItems),
		s.blobStore,
		reports.Options{
			Redirect:        s.blobMode == config.BlobModeS3,
			PresignTTL:      time.Duration(s3cfg.PresignTTLSeconds) * time.Second,
			PublicBaseURL:   s3cfg.PublicBaseURL,
			PreferPublicURL: s3cfg.PreferPublicURL,
		},
		s.logger,
	)
	reportsHandler := reports.NewHandlers(reportsService)
	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

// Handler returns the router wrapped in CORS → rate limit → auth.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.authMiddleware != nil {
		handler = s.authMiddleware.Handler(handler)
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"ai_mode": s.config.AI.Mode,
		"blob":    s.blobMode,
	})
}

// Start запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().
		Str("addr", addr).
		Str("auth_mode", s.config.AuthMode).
		Bool("auth_required", s.config.AuthRequired).
		Str("ai_mode", s.config.AI.Mode).
		Msg("server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

// Package main implements the wikiwiki API server.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DavidLiger/wikiwiki/engine/entity"
	"github.com/DavidLiger/wikiwiki/engine/relgraph"
	"github.com/DavidLiger/wikiwiki/engine/resolve"
	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"github.com/DavidLiger/wikiwiki/pkg/metrics"
	"github.com/DavidLiger/wikiwiki/pkg/mid"
	"github.com/DavidLiger/wikiwiki/providers/archive"
	"github.com/DavidLiger/wikiwiki/providers/arxiv"
	"github.com/DavidLiger/wikiwiki/providers/commons"
	"github.com/DavidLiger/wikiwiki/providers/musicbrainz"
	"github.com/DavidLiger/wikiwiki/providers/nominatim"
	"github.com/DavidLiger/wikiwiki/providers/openlibrary"
	"github.com/DavidLiger/wikiwiki/providers/wiki"
	"github.com/DavidLiger/wikiwiki/providers/wikidata"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	Language   string
	CORSOrigin string
	Depth      int
	MaxNodes   int
}

func loadConfig() Config {
	// Local development reads a .env file; absence is fine.
	_ = godotenv.Load()

	return Config{
		Port:       envOr("PORT", "8080"),
		Language:   envOr("LANGUAGE", ""),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),
		Depth:      1,
		MaxNodes:   relgraph.DefaultMaxNodesPerLevel,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := locale.FromEnv()
	if cfg.Language != "" {
		loc.Set(cfg.Language)
	}
	reg := metrics.New()

	// --- Build providers and engine ---
	resolver := resolve.New(resolve.Providers{
		Wiki:   wiki.New(loc),
		Data:   wikidata.New(loc),
		Music:  musicbrainz.New(),
		Books:  openlibrary.New(),
		Images: commons.New(),
		Geo:    nominatim.New(loc),
		Papers: arxiv.New(),
		Media:  archive.New(),
	}, resolve.Config{Locale: loc, Logger: logger, Metrics: reg})

	builder := relgraph.New(wikidata.New(loc), relgraph.Config{
		Loader:  &resolverLoader{resolver: resolver},
		Locale:  loc,
		Logger:  logger,
		Metrics: reg,
	})

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/resolve", handleResolve(resolver, logger))
	mux.HandleFunc("POST /api/resolve/candidate", handleCandidate(resolver, logger))
	mux.HandleFunc("POST /api/graph", handleGraph(resolver, builder, cfg, logger))
	mux.HandleFunc("GET /api/language", handleGetLanguage(resolver))
	mux.HandleFunc("PUT /api/language", handleSetLanguage(resolver))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger, reg),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("wikiwiki-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "language", loc.Get())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// resolverLoader adapts the resolver to the graph builder's Loader.
// Expansion loads by canonical id only; the page title comes from the
// record's sitelinks.
type resolverLoader struct {
	resolver *resolve.Resolver
}

func (l *resolverLoader) Load(ctx context.Context, canonicalID string) (*entity.Entity, error) {
	return l.resolver.ResolveFromCandidate(ctx, "", canonicalID)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ResolveResponse is the JSON response for GET /api/resolve. Exactly
// one of Entity and Candidates is set.
type ResolveResponse struct {
	Entity     *entity.Entity     `json:"entity,omitempty"`
	Candidates []entity.Candidate `json:"candidates,omitempty"`
}

func handleResolve(resolver *resolve.Resolver, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := strings.TrimSpace(r.URL.Query().Get("q"))
		if term == "" {
			http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
			return
		}

		res, err := resolver.Resolve(r.Context(), term)
		if err != nil {
			if entity.IsNotFound(err) {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			logger.Error("resolve failed", "term", term, "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ResolveResponse{
			Entity:     res.Entity,
			Candidates: res.Candidates,
		})
	}
}

// CandidateRequest is the JSON body for POST /api/resolve/candidate
// and POST /api/graph.
type CandidateRequest struct {
	Title       string `json:"title"`
	CanonicalID string `json:"canonicalId"`
	Depth       int    `json:"depth,omitempty"`
	MaxNodes    int    `json:"maxNodes,omitempty"`
}

func handleCandidate(resolver *resolve.Resolver, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.CanonicalID == "" {
			http.Error(w, `{"error":"canonicalId is required"}`, http.StatusBadRequest)
			return
		}

		e, err := resolver.ResolveFromCandidate(r.Context(), req.Title, req.CanonicalID)
		if err != nil {
			logger.Error("candidate resolve failed", "id", req.CanonicalID, "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ResolveResponse{Entity: e})
	}
}

// GraphResponse is the JSON response for POST /api/graph.
type GraphResponse struct {
	Entity *entity.Entity  `json:"entity"`
	Graph  *relgraph.Graph `json:"graph"`
}

func handleGraph(resolver *resolve.Resolver, builder *relgraph.Builder, cfg Config, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.CanonicalID == "" {
			http.Error(w, `{"error":"canonicalId is required"}`, http.StatusBadRequest)
			return
		}
		if req.Depth == 0 {
			req.Depth = cfg.Depth
		}
		if req.MaxNodes == 0 {
			req.MaxNodes = cfg.MaxNodes
		}

		e, err := resolver.ResolveFromCandidate(r.Context(), req.Title, req.CanonicalID)
		if err != nil {
			logger.Error("graph resolve failed", "id", req.CanonicalID, "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		g := builder.Build(r.Context(), e, relgraph.Options{
			Depth:            req.Depth,
			MaxNodesPerLevel: req.MaxNodes,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(GraphResponse{Entity: e, Graph: g})
	}
}

// LanguageResponse is the JSON shape for GET and PUT /api/language.
type LanguageResponse struct {
	Language string `json:"language"`
}

func handleGetLanguage(resolver *resolve.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(LanguageResponse{Language: resolver.Language()})
	}
}

func handleSetLanguage(resolver *resolve.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LanguageResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Language == "" {
			http.Error(w, `{"error":"language is required"}`, http.StatusBadRequest)
			return
		}
		resolver.SetLanguage(req.Language)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(LanguageResponse{Language: resolver.Language()})
	}
}

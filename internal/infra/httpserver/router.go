package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/repo-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/reports"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
	"github.com/bryanwahyu/repo-analyzer/internal/middleware"
)

// maxBodyBytes bounds request bodies; an analyze request is two strings.
const maxBodyBytes = 64 << 10

// Options configures NewRouter. Zero values disable auth and rate limiting.
type Options struct {
	Analyses         *appanalysis.Service
	Logger           *zap.Logger
	Checkers         map[string]middleware.HealthChecker
	APIKeys          map[string]string
	RateCapacity     int
	RateRefillPerSec int
}

type Router struct {
	svc    *appanalysis.Service
	logger *zap.Logger
}

func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{svc: opts.Analyses, logger: logger}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.Logging(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefillPerSec))
	}

	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "GitHub Code Analyzer API"})
	})
	mux.Get("/health", middleware.StatusHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Checkers))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/analyze", r.wrap(r.handleAnalyze))
	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyses", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Get("/analyses/{id}/errors", r.wrap(r.handleErrors))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks a request that could not be decoded.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.Is(err, reports.ErrNotFound), errors.Is(err, sql.ErrNoRows):
			writeDetail(w, http.StatusNotFound, "analysis not found")
		case errors.Is(err, ai.ErrQuotaExceeded):
			writeDetail(w, http.StatusTooManyRequests, "ai quota exceeded")
		case errors.Is(err, repos.ErrCloneFailed):
			writeDetail(w, http.StatusBadRequest, "Failed to clone repository: "+err.Error())
		case errors.Is(err, repos.ErrInvalidURL), errors.Is(err, middleware.ErrValidation), errors.As(err, &br):
			writeDetail(w, http.StatusBadRequest, err.Error())
		default:
			r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			writeDetail(w, http.StatusInternalServerError, "Error analyzing repository: "+err.Error())
		}
	}
}

// POST /analyze
// Body: {"repository_url": "...", "user_id": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		RepositoryURL string `json:"repository_url"`
		UserID        string `json:"user_id"`
	}
	if err := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes)).Decode(&body); err != nil {
		return badRequest{fmt.Errorf("invalid request body: %w", err)}
	}
	repoURL := middleware.SanitizeString(body.RepositoryURL)
	userID := middleware.SanitizeString(body.UserID)
	if userID == "" {
		userID = middleware.GetPrincipalFromContext(req.Context())
	}
	if err := middleware.ValidateRepositoryURL(repoURL); err != nil {
		return err
	}
	if err := middleware.ValidateUserID(userID); err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	a, err := r.svc.Analyze(req.Context(), appanalysis.AnalyzeCommand{RepositoryURL: repoURL, UserID: userID})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	if r.svc.AI.Enabled() && (a.AIAnalysis == nil || a.AIError != "") {
		middleware.IncrementAIFallbacks()
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

// GET /v1/analyses?user_id=&page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		userID = middleware.GetPrincipalFromContext(req.Context())
	}
	if err := middleware.ValidateUserID(userID); err != nil {
		return err
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	list, err := r.svc.List(req.Context(), userID, middleware.ValidatePage(page), middleware.ValidatePageSize(size))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return err
	}
	a, err := r.svc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

// GET /v1/analyses/{id}/errors?limit=
func (r *Router) handleErrors(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.FailuresOf(req.Context(), id, middleware.ValidatePageSize(limit))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

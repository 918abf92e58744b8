// Package api exposes the HTTP interface for the copyvio check service.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theassyrian/earwigbot/internal/config"
	"github.com/theassyrian/earwigbot/internal/copyvios"
	"github.com/theassyrian/earwigbot/internal/logging"
	"github.com/theassyrian/earwigbot/internal/telemetry"
)

// Server wires HTTP handlers to the shared worker pool.
type Server struct {
	router     chi.Router
	pool       *copyvios.Pool
	model      copyvios.FingerprintModel
	classifier copyvios.DomainClassifier
	clock      copyvios.Clock
	cfg        config.Config
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	pool *copyvios.Pool,
	model copyvios.FingerprintModel,
	classifier copyvios.DomainClassifier,
	clock copyvios.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pool:       pool,
		model:      model,
		classifier: classifier,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/checks", s.submitCheck)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type checkRequest struct {
	Text            string   `json:"text"`
	URLs            []string `json:"urls"`
	MinConfidence   *float64 `json:"min_confidence,omitempty"`
	MaxTimeSeconds  *int     `json:"max_time_seconds,omitempty"`
	ExcludePrefixes []string `json:"exclude_prefixes,omitempty"`
}

type sourceResult struct {
	URL        string  `json:"url"`
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Completed  bool    `json:"completed"`
}

type checkResponse struct {
	CheckID       string         `json:"check_id"`
	BestURL       string         `json:"best_url,omitempty"`
	Confidence    float64        `json:"confidence"`
	Violation     bool           `json:"violation"`
	FinishedEarly bool           `json:"finished_early"`
	Sources       []sourceResult `json:"sources"`
}

func (s *Server) submitCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}

	minConfidence := s.cfg.Check.MinConfidence
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}
	if minConfidence < 0 || minConfidence > 1 {
		writeError(w, http.StatusBadRequest, "min_confidence must be in [0, 1]")
		return
	}
	maxTime := s.cfg.MaxTime()
	if req.MaxTimeSeconds != nil {
		if *req.MaxTimeSeconds <= 0 {
			writeError(w, http.StatusBadRequest, "max_time_seconds must be > 0")
			return
		}
		maxTime = time.Duration(*req.MaxTimeSeconds) * time.Second
	}

	checkID := uuid.NewString()
	telemetry.CheckStarted()
	ws, err := copyvios.New(copyvios.Config{
		Model:         s.model,
		Article:       s.model.Build(req.Text),
		MinConfidence: minConfidence,
		Until:         s.clock.Now().Add(maxTime),
		URLTimeout:    s.cfg.URLTimeout(),
		Pool:          s.pool,
		Classifier:    s.classifier,
		Clock:         s.clock,
		Logger:        logging.ForCheck(s.logger, checkID),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not start check")
		return
	}

	ws.Enqueue(req.URLs, excludeByPrefix(req.ExcludePrefixes))
	ws.Wait()

	best := ws.Best()
	resp := checkResponse{
		CheckID:       checkID,
		BestURL:       best.URL,
		Confidence:    best.Confidence,
		Violation:     best.Confidence >= minConfidence,
		FinishedEarly: ws.Finished(),
	}
	for _, src := range ws.Sources() {
		conf, completed := src.Result()
		resp.Sources = append(resp.Sources, sourceResult{
			URL:        src.URL,
			Domain:     src.Domain,
			Confidence: conf,
			Completed:  completed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// excludeByPrefix builds the exclusion predicate from a list of URL
// prefixes. Nil when there is nothing to exclude.
func excludeByPrefix(prefixes []string) func(string) bool {
	if len(prefixes) == 0 {
		return nil
	}
	return func(rawURL string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(rawURL, prefix) {
				return true
			}
		}
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package chi provides the ops HTTP surface: health probes, prometheus
// metrics, and an ad-hoc single-document scan endpoint.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ieql/internal/domain/document"
	"github.com/kailas-cloud/ieql/internal/output"
)

// DocumentScanner scans a single document synchronously.
type DocumentScanner interface {
	ScanDocument(doc document.Document) ([]output.Response, error)
}

// ReadyFunc reports whether the service's dependencies are reachable.
type ReadyFunc func(ctx context.Context) error

// Server is the ops HTTP server.
type Server struct {
	scanner DocumentScanner
	ready   ReadyFunc
	logger  *zap.Logger
}

// New creates the ops server.
func New(scanner DocumentScanner, ready ReadyFunc, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{scanner: scanner, ready: ready, logger: logger}
}

// Router assembles the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/scan", s.handleScan)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scanRequest struct {
	URL     string `json:"url"`
	MIME    string `json:"mime,omitempty"`
	Content string `json:"content"`
}

type scanResponse struct {
	Responses []output.Response `json:"responses"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	responses, err := s.scanner.ScanDocument(document.Document{
		URL:     req.URL,
		MIME:    req.MIME,
		Content: []byte(req.Content),
	})
	if err != nil {
		s.logger.Warn("ad-hoc scan failed", zap.String("url", req.URL), zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if responses == nil {
		responses = []output.Response{}
	}
	writeJSON(w, http.StatusOK, scanResponse{Responses: responses})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

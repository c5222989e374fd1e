// Package fakemb is an in-memory stand-in for the mountebank admin API. It
// stores imposters and replays them the way mountebank reports them, but
// never opens the imposter ports.
package fakemb

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"mountebank-client/logging"
)

// Service serves the admin API.
type Service struct {
	repo   *Repository
	logger *slog.Logger
	mux    *http.ServeMux
}

// New returns a Service with an empty repository. A nil logger disables
// logging.
func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{repo: NewRepository(), logger: logger, mux: http.NewServeMux()}
	s.initAdminRoutes(s.mux)
	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("admin request", "method", r.Method, "path", r.URL.Path)
	s.mux.ServeHTTP(w, r)
}

// Repository exposes the backing store.
func (s *Service) Repository() *Repository { return s.repo }

// RecordRequest appends req, encoded as JSON, to the request log of the
// imposter on port, as if the imposter had received it.
func (s *Service) RecordRequest(port int, req any) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	var doc any
	if err := decodeDocument(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return s.repo.AppendRequest(port, doc)
}

// Server is a Service listening on a loopback httptest server.
type Server struct {
	*httptest.Server
	*Service
}

// NewServer starts a Service on a random loopback port. Close it when done.
func NewServer() *Server {
	svc := New(nil)
	return &Server{Server: httptest.NewServer(svc), Service: svc}
}

package server

import (
	"context"
	"net/http"

	"cybershield/internal/classifier"
	"cybershield/internal/config"
	"cybershield/internal/evidence"
	"cybershield/internal/logger"
	"cybershield/internal/moderation"
	"cybershield/internal/storage"
)

// Detector is the verdict source consumed by the send path. Satisfied by
// classifier.Detector.
type Detector interface {
	DetectTextAbuse(ctx context.Context, content, sensitivityLevel string) (*classifier.TextVerdict, error)
	DetectImageContent(ctx context.Context, data []byte) (*classifier.ImageVerdict, error)
}

// Server is the HTTP front of the messaging backend. It stays a thin
// caller of the moderation core and the repositories.
type Server struct {
	server   *http.Server
	certFile string
	keyFile  string

	detector   Detector
	moderation *moderation.Service
	users      *storage.UserRepository
	messages   *storage.MessageRepository
	incidents  *storage.IncidentRepository
	reports    *storage.ReportRepository
	evidence   *evidence.Store

	defaultSensitivity string
}

// New creates the HTTP server and registers all routes
func New(cfg *config.Config, detector Detector, mod *moderation.Service,
	users *storage.UserRepository, messages *storage.MessageRepository,
	incidents *storage.IncidentRepository, reports *storage.ReportRepository,
	store *evidence.Store) *Server {

	s := &Server{
		certFile:           cfg.Server.CertFile,
		keyFile:            cfg.Server.KeyFile,
		detector:           detector,
		moderation:         mod,
		users:              users,
		messages:           messages,
		incidents:          incidents,
		reports:            reports,
		evidence:           store,
		defaultSensitivity: cfg.Classifier.DefaultSensitivity,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/messages/send", s.handleSendMessage)
	mux.HandleFunc("GET /api/v1/messages/conversation", s.handleGetConversation)
	mux.HandleFunc("POST /api/v1/images/check", s.handleCheckImage)
	mux.HandleFunc("POST /api/v1/reports", s.handleCreateReport)
	mux.HandleFunc("GET /api/v1/admin/incidents", s.handleListIncidents)
	mux.HandleFunc("PUT /api/v1/admin/incidents/{id}", s.handleUpdateIncident)
	mux.HandleFunc("GET /api/v1/admin/reports", s.handleListReports)
	mux.HandleFunc("PUT /api/v1/admin/reports/{id}", s.handleUpdateReport)
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/tag", s.handleUpdateTag)
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/block", s.handleUpdateBlock)
	mux.HandleFunc("GET /api/v1/admin/reports/generate", s.handleGenerateReport)

	s.server = &http.Server{
		Addr:    "0.0.0.0:" + cfg.Server.ListenPort,
		Handler: mux,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logger.Infof("Starting HTTP server on %s", s.server.Addr)

	if s.certFile != "" && s.keyFile != "" {
		logger.Infof("Using TLS with cert: %s, key: %s", s.certFile, s.keyFile)
		return s.server.ListenAndServeTLS(s.certFile, s.keyFile)
	}

	logger.Infof("WARNING: Running without TLS. Make sure you have a HTTPS proxy in front of this server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"awstatus/internal/catalog"
	"awstatus/internal/model"
	"awstatus/internal/store"
)

type Server struct {
	store   *store.Store
	catalog *catalog.Catalog
	logger  *zap.Logger
	router  *mux.Router
	server  *http.Server
}

func NewServer(st *store.Store, cat *catalog.Catalog, logger *zap.Logger) *Server {
	s := &Server{
		store:   st,
		catalog: cat,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestID)

	s.router.HandleFunc("/api/issues", s.handleIssues).Methods("GET")
	s.router.HandleFunc("/api/services", s.handleServices).Methods("GET")
	s.router.HandleFunc("/api/regions", s.handleRegions).Methods("GET")
	s.router.HandleFunc("/api/refresh", s.handleRefresh).Methods("POST")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestID tags every request with a UUID and logs it.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

type issuesResponse struct {
	Current         []model.Issue `json:"current"`
	Archived        []model.Issue `json:"archived"`
	ArchiveSpanDays int           `json:"archive_span_days"`
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	service := strings.ToLower(r.URL.Query().Get("service"))
	region := strings.ToLower(r.URL.Query().Get("region"))

	// A supplied filter must name something the catalog knows; matching
	// itself runs against the user's term so both name and code work.
	if service != "" {
		if _, err := s.catalog.ServiceCode(service); err != nil {
			s.respondLookupError(w, err)
			return
		}
	}
	if region != "" {
		if _, err := s.catalog.RegionCode(region); err != nil {
			s.respondLookupError(w, err)
			return
		}
	}

	result := s.store.Query(service, region)
	s.writeJSON(w, http.StatusOK, issuesResponse{
		Current:         result.Current,
		Archived:        result.Archived,
		ArchiveSpanDays: s.store.ArchiveSpanDays(),
	})
}

func (s *Server) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrUnknownService) || errors.Is(err, catalog.ErrUnknownRegion) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Services())
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Regions())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Refresh(r.Context()); err != nil {
		s.logger.Error("Catalog refresh failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := s.store.Refresh(r.Context()); err != nil {
		s.logger.Error("Issue refresh failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	result := s.store.Query("", "")
	s.writeJSON(w, http.StatusOK, map[string]int{
		"current":           len(result.Current),
		"archived":          len(result.Archived),
		"archive_span_days": s.store.ArchiveSpanDays(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

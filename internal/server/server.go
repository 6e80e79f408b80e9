// Package server exposes analysis runs and report history as a small
// JSON API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/signalscale/signalscale/internal/database"
	"github.com/signalscale/signalscale/internal/orchestrate"
	"github.com/signalscale/signalscale/internal/signal"
)

// Runner runs analyses for the API. Satisfied by orchestrate.Runner.
type Runner interface {
	Run(ctx context.Context, req orchestrate.Request) *signal.Report
	ResolveBrand(ctx context.Context, name, hintURL string) signal.Entity
}

// Server is the JSON API over a runner and the report history store.
// The database may be nil; history endpoints then report 503.
type Server struct {
	runner Runner
	db     *database.DB
	router chi.Router
}

// New creates a new Server.
func New(runner Runner, db *database.DB) *Server {
	s := &Server{runner: runner, db: db, router: chi.NewRouter()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/resolve", s.handleResolve)
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
	})
}

// competitorInput accepts either a structured {name, url} object or a
// freeform "Name, URL" string.
type competitorInput struct {
	orchestrate.EntityInput
}

func (c *competitorInput) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		c.EntityInput = orchestrate.ParseEntityInput(raw)
		return nil
	}
	return json.Unmarshal(data, &c.EntityInput)
}

type analyzeRequest struct {
	Brand       orchestrate.EntityInput `json:"brand"`
	Competitors []competitorInput       `json:"competitors"`
	Category    string                  `json:"category"`
	WindowDays  int                     `json:"window_days"`
	Mode        string                  `json:"mode"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(in.Brand.Name) == "" && strings.TrimSpace(in.Brand.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "brand name or url is required")
		return
	}

	req := orchestrate.Request{
		Brand:      in.Brand,
		Category:   in.Category,
		WindowDays: in.WindowDays,
		Mode:       in.Mode,
	}
	for _, comp := range in.Competitors {
		req.Competitors = append(req.Competitors, comp.EntityInput)
	}

	report := s.runner.Run(r.Context(), req)

	if s.db != nil {
		if id, err := s.db.SaveReport(report); err != nil {
			log.Printf("Saving report failed: %v", err)
		} else {
			w.Header().Set("X-Report-ID", strconv.FormatInt(id, 10))
		}
	}

	s.writeJSON(w, http.StatusOK, report)
}

type resolveRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var in resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ent := s.runner.ResolveBrand(r.Context(), in.Name, in.URL)
	s.writeJSON(w, http.StatusOK, ent)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusServiceUnavailable, "report history is not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	metas, err := s.db.ListReports(limit)
	if err != nil {
		log.Printf("Listing reports failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "listing reports failed")
		return
	}
	if metas == nil {
		metas = []database.ReportMeta{}
	}
	s.writeJSON(w, http.StatusOK, metas)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusServiceUnavailable, "report history is not configured")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := s.db.GetReport(id)
	if err != nil {
		log.Printf("Loading report %d failed: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "loading report failed")
		return
	}
	if report == nil {
		s.writeError(w, http.StatusNotFound, "report not found")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encoding response failed: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Serve starts the HTTP server on the given port.
func Serve(runner Runner, db *database.DB, port int) error {
	srv := New(runner, db)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}

// Package api serves rail reports, assessments and charts over HTTP.
package api

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/banshee-data/railwear/internal/charts"
	"github.com/banshee-data/railwear/internal/db"
	"github.com/banshee-data/railwear/internal/httputil"
	"github.com/banshee-data/railwear/internal/monitoring"
	"github.com/banshee-data/railwear/internal/report"
	"github.com/banshee-data/railwear/internal/version"
)

// History is the report summary store behind /api/history. ReportByID
// returns sql.ErrNoRows for an unknown id.
type History interface {
	RecordReport(ctx context.Context, s report.Summary) error
	Reports(ctx context.Context, limit int, order db.HistoryOrder) ([]report.Summary, error)
	ReportByID(ctx context.Context, id string) (report.Summary, error)
}

type Server struct {
	builder  *report.Builder
	sessions *report.Store
	history  History
	static   fs.FS
	seed     func() uint64
}

// NewServer returns a Server that builds reports with b and keeps the most
// recent ones in sessions for chart redraws.
func NewServer(b *report.Builder, sessions *report.Store) *Server {
	return &Server{
		builder:  b,
		sessions: sessions,
		seed:     report.RandomSeed,
	}
}

// WithHistory records every generated report in h and serves it from
// /api/history.
func (s *Server) WithHistory(h History) *Server {
	s.history = h
	return s
}

// WithStatic serves fsys under /static/ and redirects / there.
func (s *Server) WithStatic(fsys fs.FS) *Server {
	s.static = fsys
	return s
}

// WithSeedSource replaces the generator used when a request has no seed.
func (s *Server) WithSeedSource(f func() uint64) *Server {
	s.seed = f
	return s
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rails", s.generateRails)
	mux.HandleFunc("/api/reports/{id}", s.showReport)
	mux.HandleFunc("/api/assess", s.assess)
	mux.HandleFunc("/api/thresholds", s.showThresholds)
	mux.HandleFunc("/api/history", s.listHistory)
	mux.HandleFunc("/api/history/{id}", s.showHistoryEntry)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/charts/rails", s.chartPage)
	mux.HandleFunc("/charts/rail.png", s.railImage(charts.FormatPNG))
	mux.HandleFunc("/charts/rail.svg", s.railImage(charts.FormatSVG))
	if s.static != nil {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				httputil.NotFound(w, "not found")
				return
			}
			http.Redirect(w, r, "/static/", http.StatusFound)
		})
	}
	return mux
}

// generate builds a report, keeps it for chart redraws and records its
// summary. History failures are logged only.
func (s *Server) generate(ctx context.Context, req generateRequest) (*report.Report, error) {
	seed := req.Seed
	if !req.HasSeed {
		seed = s.seed()
	}
	rep, err := s.builder.Build(req.Params, seed)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(rep)
	if s.history != nil {
		if err := s.history.RecordReport(ctx, rep.Summarize()); err != nil {
			monitoring.Logf("failed to record report %s: %v", rep.ID, err)
		}
	}
	return rep, nil
}

// lookup returns the stored report named by ?id=, or a new one built from
// the query parameters.
func (s *Server) lookup(r *http.Request) (*report.Report, error) {
	q := r.URL.Query()
	if id := strings.TrimSpace(q.Get("id")); id != "" {
		return s.sessions.Get(id)
	}
	req, err := parseGenerateRequest(q)
	if err != nil {
		return nil, err
	}
	return s.generate(r.Context(), req)
}

func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrBadID):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, report.ErrNotFound):
		httputil.NotFound(w, err.Error())
	default:
		httputil.WriteError(w, err)
	}
}

func (s *Server) generateRails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, err := parseGenerateRequest(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rep, err := s.generate(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSONOK(w, rep)
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rep, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	httputil.WriteJSONOK(w, rep)
}

func (s *Server) assess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	score, err := parseScore(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.builder.Scale().Assess(score))
}

func (s *Server) showThresholds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.builder.Scale())
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	limit, err := parseLimit(q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	order, err := db.ParseHistoryOrder(q.Get("order"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if s.history == nil {
		httputil.WriteJSONOK(w, []report.Summary{})
		return
	}
	summaries, err := s.history.Reports(r.Context(), limit, order)
	if err != nil {
		httputil.InternalServerError(w, "failed to read history: "+err.Error())
		return
	}
	httputil.WriteJSONOK(w, summaries)
}

// showHistoryEntry serves one recorded summary. Unlike /api/reports/{id}
// it survives session eviction and restarts.
func (s *Server) showHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.NotFound(w, "history is not enabled")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	summary, err := s.history.ReportByID(r.Context(), id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		httputil.NotFound(w, "no history entry "+id)
	case err != nil:
		httputil.InternalServerError(w, "failed to read history: "+err.Error())
	default:
		httputil.WriteJSONOK(w, summary)
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.builder.Config())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}

func (s *Server) chartPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rep, err := s.lookup(r)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	page, err := charts.RenderPageBytes(s.builder.NewSession(rep))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", page)
}

func (s *Server) railImage(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		rail, err := parseRail(r.URL.Query())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		plot := charts.PlotRail
		switch kind := r.URL.Query().Get("kind"); kind {
		case "", "profile":
		case "defects":
			plot = charts.PlotDefects
		default:
			httputil.BadRequest(w, "kind must be profile or defects")
			return
		}
		rep, err := s.lookup(r)
		if err != nil {
			writeLookupError(w, err)
			return
		}

		var buf bytes.Buffer
		if err := plot(&buf, s.builder.NewSession(rep), rail, format); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteBody(w, charts.ContentType(format), buf.Bytes())
	}
}

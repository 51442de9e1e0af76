package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yurifrl/chatledger/pkg/config"
	"github.com/yurifrl/chatledger/pkg/csv"
	"github.com/yurifrl/chatledger/pkg/models"
	"github.com/yurifrl/chatledger/pkg/parser"
	"github.com/yurifrl/chatledger/pkg/report"
	"github.com/yurifrl/chatledger/pkg/service"
	"github.com/yurifrl/chatledger/pkg/task"
)

//go:embed templates/*.html
var templates embed.FS

const maxUploadSize = 32 << 20

// Processed ledgers are kept for download until they expire or are pushed
// out by newer uploads.
const (
	maxCachedLedgers = 64
	ledgerTTL        = time.Hour
)

// Server handles HTTP requests for ledger processing
type Server struct {
	config    *config.Config
	logger    *log.Logger
	mux       *http.ServeMux
	template  *template.Template
	processor *service.Processor
	ledgers   *expirable.LRU[string, *models.Ledger]
}

// New creates a new HTTP server
func New(config *config.Config, processor *service.Processor, logger *log.Logger) *Server {
	tmpl := template.Must(template.ParseFS(templates, "templates/*.html"))
	s := &Server{
		config:    config,
		logger:    logger,
		mux:       http.NewServeMux(),
		template:  tmpl,
		processor: processor,
		ledgers:   expirable.NewLRU[string, *models.Ledger](maxCachedLedgers, nil, ledgerTTL),
	}
	s.setupRoutes()
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/", s.withLogging(s.handleHome))
	s.mux.HandleFunc("/api/health", s.withLogging(s.handleHealth))
	s.mux.HandleFunc("/api/process", s.withLogging(s.handleProcess))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondError(w, r, http.StatusNotFound, "not found", nil)
		return
	}
	data := map[string]string{"Layout": s.rangeLayout()}
	if err := s.template.ExecuteTemplate(w, "index.html", data); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to render page", err)
		return
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// ---------------- process handler ----------------
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	layout := s.rangeLayout()
	start, err := parser.ParseRangeDate(r.FormValue("start"), layout)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid start date, expected "+layout, err)
		return
	}
	end, err := parser.ParseRangeDate(r.FormValue("end"), layout)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid end date, expected "+layout, err)
		return
	}

	file, header, err := r.FormFile("transcript")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read file", err)
		return
	}
	defer file.Close()

	t := task.Start(r.Context(), func(ctx context.Context) (*models.Ledger, error) {
		return s.processor.BuildReader(ctx, file, start, end)
	})
	ledger, err := t.Wait(r.Context())
	if err != nil {
		if errors.Is(err, parser.ErrInvalidRange) {
			s.respondError(w, r, http.StatusBadRequest, "invalid date range", err)
			return
		}
		s.respondError(w, r, http.StatusInternalServerError, "failed to process transcript", err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	key := base + "-" + t.ID()
	s.ledgers.Add(key, ledger)

	s.logger.Info("transcript processed", "file", header.Filename, "task", t.ID(),
		"entries", ledger.Stats.Entries, "took", t.Elapsed())

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"file":   key + ".xlsx",
		"csv":    key + ".csv",
		"ledger": ledger,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// ---------------- file download handler ----------------

// handleFiles renders the ledger of a previously processed transcript as a
// workbook or, for a .csv name, as CSV.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filename == "" {
		s.respondError(w, r, http.StatusBadRequest, "filename required", nil)
		return
	}

	ext := filepath.Ext(filename)
	ledger, ok := s.ledgers.Get(strings.TrimSuffix(filename, ext))
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}

	switch ext {
	case ".csv":
		filter, err := csvFilter(r)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}
		data, err := csv.Create(ledger.Entries, filter)
		if err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "failed to render csv", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		if _, err := w.Write(data); err != nil {
			s.logger.Warn("failed to write csv response", "err", err)
		}
	case ".xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		if err := report.Write(w, ledger); err != nil {
			s.logger.Warn("failed to write workbook response", "err", err)
		}
	default:
		s.respondError(w, r, http.StatusBadRequest, "unsupported file type", nil)
	}
}

// --- helpers ---

// csvFilter reads the optional ?filter=verify and ?sender= query values.
func csvFilter(r *http.Request) (csv.FilterFunc, error) {
	var filters []csv.FilterFunc
	switch f := r.URL.Query().Get("filter"); f {
	case "":
	case "verify":
		filters = append(filters, csv.NeedsReview)
	default:
		return nil, fmt.Errorf("unknown filter %q", f)
	}
	if sender := r.URL.Query().Get("sender"); sender != "" {
		filters = append(filters, csv.BySender(sender))
	}

	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	}
	return func(e models.Entry) bool {
		for _, f := range filters {
			if !f(e) {
				return false
			}
		}
		return true
	}, nil
}

func (s *Server) rangeLayout() string {
	if s.config.Dates.RangeLayout == "" {
		return parser.DefaultRangeLayout
	}
	return s.config.Dates.RangeLayout
}

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}

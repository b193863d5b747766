// Package web serves the browser front end: upload a picture or PDF and get
// a CSV back, or upload a workbook and download it with synthetic rows.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/thywilljoshua/datasmith/internal/ai"
	"github.com/thywilljoshua/datasmith/internal/config"
	"github.com/thywilljoshua/datasmith/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// NoKeyWarning is shown on the convert pages when no API key is configured.
const NoKeyWarning = "Please enter your API key to proceed."

const (
	previewWidth  = 800
	shutdownGrace = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	// OutputName is the file name offered for CSV downloads.
	OutputName string
	// Seed for synthetic rows; 0 draws a fresh seed per request.
	Seed uint64
	// Extractor is nil when no API key is configured.
	Extractor ai.Extractor
	Logger    *logging.Logger
	// MaxUploads caps the in-memory store.
	MaxUploads int
}

// Server holds the handlers and their state.
type Server struct {
	opts  Options
	store *Store
	pages map[string]*template.Template
	log   *logging.Logger
}

// New parses the embedded templates and prepares the upload store.
func New(opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = config.DefaultAddr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUpload
	}
	if opts.OutputName == "" {
		opts.OutputName = config.DefaultOutputPath
	}
	opts.OutputName = filepath.Base(opts.OutputName)
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("web")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:  opts,
		store: NewStore(opts.MaxUploads),
		pages: pages,
		log:   opts.Logger,
	}, nil
}

var pageNames = []string{"index.html", "convert.html", "document.html", "synth.html", "workbook.html"}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /convert", s.handleConvertForm)
	mux.HandleFunc("POST /convert/upload", s.handleConvertUpload)
	mux.HandleFunc("GET /convert/{id}", s.handleDocument)
	mux.HandleFunc("POST /convert/{id}/rotate", s.handleRotate)
	mux.HandleFunc("POST /convert/{id}/run", s.handleRun)
	mux.HandleFunc("GET /convert/{id}/image", s.handleImage)
	mux.HandleFunc("GET /convert/{id}/csv", s.handleCSV)

	mux.HandleFunc("GET /synth", s.handleSynthForm)
	mux.HandleFunc("POST /synth/upload", s.handleSynthUpload)
	mux.HandleFunc("GET /synth/{id}", s.handleWorkbook)
	mux.HandleFunc("POST /synth/{id}/generate", s.handleGenerate)

	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.opts.Addr, "ai", s.opts.Extractor != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

type page struct {
	Title   string
	Error   string
	Warning string
	Notice  string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := s.pages[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		s.log.Error("render template", "template", name, "error", err)
		http.Error(w, fmt.Sprintf("render template: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn("write response", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "index.html", page{Title: "datasmith"})
}

// readUpload reads the "file" field of a multipart form, bounded by the
// configured upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (name, mimeType string, data []byte, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", "", nil, fmt.Errorf("file is larger than %d bytes", tooBig.Limit)
		}
		return "", "", nil, errors.New("invalid multipart payload")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, errors.New("file field is required")
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return "", "", nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", "", nil, errors.New("uploaded file is empty")
	}
	return header.Filename, header.Header.Get("Content-Type"), data, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

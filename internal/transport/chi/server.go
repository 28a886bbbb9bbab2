package chi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/session"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/internal/usecase/note"
	"github.com/kailas-cloud/docsearch/internal/usecase/search"
	"github.com/kailas-cloud/docsearch/internal/usecase/upload"
	"github.com/kailas-cloud/docsearch/internal/version"
)

// MsgInFlight is shown when a form is submitted twice.
const MsgInFlight = "A request is already in progress"

// multipartMemory is the part of an upload kept in memory before spilling to disk.
const multipartMemory = 8 << 20

//go:embed templates/*.html
var templateFS embed.FS

var pages = mustParsePages("home", "search", "upload", "error")

func mustParsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}

// pageData is the template model shared by every page.
type pageData struct {
	Title   string
	Version string
	Alert   string
	Message string
	Accept  string

	Search search.View
	Upload upload.View
	Note   note.View
}

// Options configure the HTML server.
type Options struct {
	// MaxUploadBytes caps a multipart upload request body.
	MaxUploadBytes int64
	CookieSecure   bool
}

// Server renders the docsearch pages.
type Server struct {
	sessions *session.Store
	health   *healthuc.Service
	logger   *zap.Logger
	opts     Options
}

// NewServer creates an HTML server.
func NewServer(sessions *session.Store, health *healthuc.Service, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Server{sessions: sessions, health: health, logger: logger, opts: opts}
}

// Mount registers all routes on r.
func (s *Server) Mount(r chi.Router) {
	r.NotFound(s.NotFound)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", s.Home)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(s.sessions, s.opts.CookieSecure))
		r.Get("/search", s.SearchPage)
		r.Post("/search", s.SearchSubmit)
		r.Get("/upload", s.UploadPage)
		r.Post("/upload", s.UploadSubmit)
		r.Post("/upload/note", s.NoteSubmit)
	})
}

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", pageData{})
}

// NotFound renders the error page for unknown routes.
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "error", pageData{Title: "Not found", Message: "Page not found."})
}

// SearchPage handles GET /search: mounts a fresh search page.
func (s *Server) SearchPage(w http.ResponseWriter, r *http.Request) {
	page := sessionFrom(r.Context()).OpenSearch()
	s.render(w, r, http.StatusOK, "search", pageData{Title: "Search", Search: page.View()})
}

// SearchSubmit handles POST /search.
func (s *Server) SearchSubmit(w http.ResponseWriter, r *http.Request) {
	page := sessionFrom(r.Context()).CurrentSearch()
	err := page.Submit(r.Context(), r.PostFormValue("query"))
	if errors.Is(err, domain.ErrPageClosed) {
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}

	status, alert := s.submitOutcome(r, err)
	s.render(w, r, status, "search", pageData{Title: "Search", Alert: alert, Search: page.View()})
}

// UploadPage handles GET /upload: mounts a fresh upload page and paste-text form.
func (s *Server) UploadPage(w http.ResponseWriter, r *http.Request) {
	up, n := sessionFrom(r.Context()).OpenUpload()
	s.renderUpload(w, r, http.StatusOK, "", up, n)
}

// UploadSubmit handles POST /upload. Files in the form replace the pending
// set; a form without files submits the pending set again.
// With action=select the files are only staged.
func (s *Server) UploadSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	up, n := sess.CurrentUpload(), sess.CurrentNote()

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			alert := fmt.Sprintf("Upload exceeds the %d MB limit", s.opts.MaxUploadBytes>>20)
			s.renderUpload(w, r, http.StatusRequestEntityTooLarge, alert, up, n)
			return
		}
		s.renderUpload(w, r, http.StatusBadRequest, "Invalid upload form", up, n)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files, err := readUploadFiles(r.MultipartForm.File["files"])
	if err != nil {
		logpkg.FromContext(r.Context(), s.logger).Warn("read upload parts", zap.Error(err))
		s.renderUpload(w, r, http.StatusBadRequest, "Invalid upload form", up, n)
		return
	}

	if len(files) > 0 {
		if err := up.Select(files); err != nil {
			s.finishUpload(w, r, err, up, n)
			return
		}
	}
	if r.FormValue("action") == "select" {
		s.renderUpload(w, r, http.StatusOK, "", up, n)
		return
	}

	s.finishUpload(w, r, up.Submit(r.Context()), up, n)
}

// NoteSubmit handles POST /upload/note.
func (s *Server) NoteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	up, n := sess.CurrentUpload(), sess.CurrentNote()

	err := n.Submit(r.Context(), r.PostFormValue("title"), r.PostFormValue("content"))
	s.finishUpload(w, r, err, up, n)
}

func (s *Server) finishUpload(w http.ResponseWriter, r *http.Request, err error, up *upload.Page, n *note.Page) {
	if errors.Is(err, domain.ErrPageClosed) {
		http.Redirect(w, r, "/upload", http.StatusSeeOther)
		return
	}
	status, alert := s.submitOutcome(r, err)
	s.renderUpload(w, r, status, alert, up, n)
}

func (s *Server) renderUpload(w http.ResponseWriter, r *http.Request, status int, alert string, up *upload.Page, n *note.Page) {
	s.render(w, r, status, "upload", pageData{
		Title:  "Upload",
		Alert:  alert,
		Accept: upload.Accept,
		Upload: up.View(),
		Note:   n.View(),
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// submitOutcome maps a page submit error to a response status and an
// optional request-level alert. The page view already carries the
// user-facing message for validation and backend errors.
func (s *Server) submitOutcome(r *http.Request, err error) (int, string) {
	log := logpkg.FromContext(r.Context(), s.logger)

	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, domain.ErrRequestInFlight):
		return http.StatusConflict, MsgInFlight
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrNoFiles),
		errors.Is(err, domain.ErrEmptyNote):
		return http.StatusUnprocessableEntity, ""
	}

	if r.Context().Err() != nil {
		log.Debug("client went away", zap.Error(err))
		return http.StatusOK, ""
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		log.Warn("backend error", zap.Error(err))
		return http.StatusBadGateway, ""
	}

	log.Error("internal error", zap.Error(err))
	return http.StatusInternalServerError, ""
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	renderPage(w, r, s.logger, status, name, data)
}

// renderPage executes the named page into a buffer so a template error never
// leaves a half-written response.
func renderPage(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, name string, data pageData) {
	data.Version = version.String()

	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logpkg.FromContext(r.Context(), logger).Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readUploadFiles(headers []*multipart.FileHeader) ([]domain.UploadFile, error) {
	files := make([]domain.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, domain.UploadFile{Name: fh.Filename, Size: fh.Size, Data: data})
	}
	return files, nil
}

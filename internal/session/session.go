package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/usecase/note"
	"github.com/kailas-cloud/docsearch/internal/usecase/search"
	"github.com/kailas-cloud/docsearch/internal/usecase/upload"
)

// Session holds the page instances currently mounted by one browser.
// Open* replaces the instance (a page load); Current* returns the live one
// (a form post), mounting it if needed.
type Session struct {
	ID string

	backend Backend
	logger  *zap.Logger

	mu     sync.Mutex
	seen   time.Time
	search *search.Page
	upload *upload.Page
	note   *note.Page
}

func newSession(id string, backend Backend, logger *zap.Logger, now time.Time) *Session {
	return &Session{
		ID:      id,
		backend: backend,
		logger:  logger.With(zap.String("session_id", id)),
		seen:    now,
	}
}

// OpenSearch unmounts the previous search page and mounts a fresh one.
func (s *Session) OpenSearch() *search.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.search != nil {
		s.search.Close()
	}
	s.search = search.NewPage(s.backend, s.logger)
	return s.search
}

// CurrentSearch returns the mounted search page.
func (s *Session) CurrentSearch() *search.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.search == nil {
		s.search = search.NewPage(s.backend, s.logger)
	}
	return s.search
}

// OpenUpload unmounts the previous upload page, including its paste-text
// form, and mounts fresh ones.
func (s *Session) OpenUpload() (*upload.Page, *note.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upload != nil {
		s.upload.Close()
	}
	if s.note != nil {
		s.note.Close()
	}
	s.upload = upload.NewPage(s.backend, s.logger)
	s.note = note.NewPage(s.backend, s.logger)
	return s.upload, s.note
}

// CurrentUpload returns the mounted upload page.
func (s *Session) CurrentUpload() *upload.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upload == nil {
		s.upload = upload.NewPage(s.backend, s.logger)
	}
	return s.upload
}

// CurrentNote returns the mounted paste-text form.
func (s *Session) CurrentNote() *note.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.note == nil {
		s.note = note.NewPage(s.backend, s.logger)
	}
	return s.note
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.seen = now
	s.mu.Unlock()
}

func (s *Session) lastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.search != nil {
		s.search.Close()
	}
	if s.upload != nil {
		s.upload.Close()
	}
	if s.note != nil {
		s.note.Close()
	}
}

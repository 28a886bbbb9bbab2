// Package session keeps the page instances mounted by each browser.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/metrics"
	"github.com/kailas-cloud/docsearch/internal/usecase/note"
	"github.com/kailas-cloud/docsearch/internal/usecase/search"
	"github.com/kailas-cloud/docsearch/internal/usecase/upload"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "docsearch_session"

// DefaultMaxSessions is used when Options.MaxSessions is unset.
const DefaultMaxSessions = 10000

// Backend is everything page instances need from the backend client.
type Backend interface {
	search.Searcher
	upload.Uploader
	note.Embedder
}

// Options tune session lifetime.
type Options struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	// MaxSessions caps live sessions; at the cap the least recently seen
	// one is evicted. Zero means DefaultMaxSessions.
	MaxSessions int
	// Now overrides the clock; tests only.
	Now func() time.Time
}

// Store maps session IDs to live sessions.
type Store struct {
	backend Backend
	logger  *zap.Logger
	ttl     time.Duration
	max     int
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a Store and starts its janitor. A zero SweepInterval
// disables the janitor; Sweep can then be called directly.
func NewStore(backend Backend, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}

	s := &Store{
		backend:  backend,
		logger:   logger,
		ttl:      opts.IdleTTL,
		max:      opts.MaxSessions,
		now:      opts.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go s.janitor(opts.SweepInterval)
	} else {
		close(s.done)
	}
	return s
}

// Resolve returns the session for id, or a new one when id is unknown or
// malformed. created reports whether a cookie must be issued.
func (s *Store) Resolve(id string) (sess *Session, created bool) {
	s.mu.Lock()
	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := s.sessions[id]; ok {
			sess.touch(s.now())
			s.mu.Unlock()
			return sess, false
		}
	}

	var evicted *Session
	if len(s.sessions) >= s.max {
		evicted = s.oldestLocked()
		delete(s.sessions, evicted.ID)
	}
	sess = newSession(uuid.NewString(), s.backend, s.logger, s.now())
	s.sessions[sess.ID] = sess
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if evicted != nil {
		evicted.close()
		s.logger.Debug("session evicted at capacity", zap.String("session_id", evicted.ID))
	}
	return sess, true
}

// oldestLocked returns the least recently seen session. s.mu must be held
// and the store must not be empty.
func (s *Store) oldestLocked() *Session {
	var oldest *Session
	var oldestSeen time.Time
	for _, sess := range s.sessions {
		if seen := sess.lastSeen(); oldest == nil || seen.Before(oldestSeen) {
			oldest, oldestSeen = sess, seen
		}
	}
	return oldest
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the TTL and closes their pages.
// It returns the number of evicted sessions.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.lastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		s.logger.Debug("sessions evicted", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Close stops the janitor and closes every session.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done

		s.mu.Lock()
		all := s.sessions
		s.sessions = make(map[string]*Session)
		metrics.SessionsActive.Set(0)
		s.mu.Unlock()

		for _, sess := range all {
			sess.close()
		}
	})
}

func (s *Store) janitor(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/usecase/flight"
)

// State is the request lifecycle state of the search page.
type State string

const (
	Idle      State = "idle"
	Searching State = "searching"
	Success   State = "success"
	Error     State = "error"
)

// User-facing messages.
const (
	MsgEmptyQuery = "Please enter a search query"
	MsgNoMatches  = "No documents found matching your query"
	MsgFailed     = "Error searching documents"
)

// ResultCard is a search result prepared for display.
type ResultCard struct {
	ID         string
	Title      string
	Preview    string
	Similarity string
}

// View is an immutable snapshot of the page for rendering.
type View struct {
	State          State
	Query          string
	Message        string // error slot; also carries the "no matches" notice
	Results        []ResultCard
	SubmitDisabled bool
	SubmitLabel    string
}

// Page is one mounted search page.
type Page struct {
	searcher Searcher
	logger   *zap.Logger
	flight   flight.Flight

	mu      sync.Mutex
	state   State
	query   string
	message string
	results []domain.SearchResult
}

// NewPage mounts a search page in the Idle state.
func NewPage(searcher Searcher, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{searcher: searcher, logger: logger, state: Idle}
}

// Submit runs one query. A blank query fails with domain.ErrEmptyQuery
// without contacting the backend; a submit while another is running fails
// with domain.ErrRequestInFlight and leaves the page untouched.
// Backend failures are reflected in the view and returned for logging.
func (p *Page) Submit(ctx context.Context, query string) error {
	p.mu.Lock()
	if p.flight.Closed() {
		p.mu.Unlock()
		return domain.ErrPageClosed
	}
	if p.flight.Busy() {
		p.mu.Unlock()
		return domain.ErrRequestInFlight
	}

	p.query = query
	if strings.TrimSpace(query) == "" {
		p.state = Error
		p.message = MsgEmptyQuery
		p.mu.Unlock()
		return domain.ErrEmptyQuery
	}

	reqCtx, err := p.flight.Begin(ctx)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.state = Searching
	p.message = ""
	p.mu.Unlock()

	p.logger.Debug("search submitted", zap.Int("query_len", len(query)))
	results, err := p.searcher.SearchDocuments(reqCtx, query)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.flight.End() {
		return domain.ErrPageClosed
	}

	if err != nil {
		p.state = Error
		p.results = nil
		p.message = domain.UserMessage(err, MsgFailed)
		return fmt.Errorf("search documents: %w", err)
	}

	p.state = Success
	p.results = results
	if len(results) == 0 {
		p.message = MsgNoMatches
	}
	return nil
}

// Close unmounts the page, cancelling any in-flight request.
func (p *Page) Close() {
	p.flight.Close()
}

// View returns a render snapshot.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		State:       p.state,
		Query:       p.query,
		Message:     p.message,
		SubmitLabel: "Search",
	}
	if p.state == Searching {
		v.SubmitDisabled = true
		v.SubmitLabel = "Searching..."
	}
	v.Results = make([]ResultCard, len(p.results))
	for i, r := range p.results {
		v.Results[i] = ResultCard{
			ID:         r.ID,
			Title:      r.Title,
			Preview:    Preview(r.Content),
			Similarity: Percent(r.Similarity),
		}
	}
	return v
}

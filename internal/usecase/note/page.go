// Package note is the paste-text form of the upload page: a title and a body
// sent to the backend as one document.
package note

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/usecase/flight"
)

// State is the request lifecycle state of the note form.
type State string

const (
	Idle    State = "idle"
	Saving  State = "saving"
	Success State = "success"
	Error   State = "error"
)

// User-facing messages.
const (
	MsgEmpty   = "Please enter a title and content"
	MsgSuccess = "Document embedded successfully"
	MsgFailed  = "Error embedding document"
)

// View is an immutable snapshot of the form for rendering.
type View struct {
	State          State
	Title          string
	Content        string
	Message        string
	Success        bool
	SubmitDisabled bool
	SubmitLabel    string
}

// Page is one mounted note form.
type Page struct {
	embedder Embedder
	logger   *zap.Logger
	flight   flight.Flight

	mu      sync.Mutex
	state   State
	title   string
	content string
	message string
}

// NewPage mounts a note form in the Idle state.
func NewPage(embedder Embedder, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{embedder: embedder, logger: logger, state: Idle}
}

// Submit embeds the given title and content. The form keeps its values on
// failure and is cleared on success.
func (p *Page) Submit(ctx context.Context, title, content string) error {
	p.mu.Lock()
	if p.flight.Closed() {
		p.mu.Unlock()
		return domain.ErrPageClosed
	}
	if p.flight.Busy() {
		p.mu.Unlock()
		return domain.ErrRequestInFlight
	}

	p.title, p.content = title, content
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		p.state = Error
		p.message = MsgEmpty
		p.mu.Unlock()
		return domain.ErrEmptyNote
	}

	reqCtx, err := p.flight.Begin(ctx)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.state = Saving
	p.message = ""
	p.mu.Unlock()

	p.logger.Debug("note submitted", zap.Int("content_len", len(content)))
	msg, err := p.embedder.EmbedDocument(reqCtx, domain.Document{Title: title, Content: content})

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.flight.End() {
		return domain.ErrPageClosed
	}

	if err != nil {
		p.state = Error
		p.message = domain.UserMessage(err, MsgFailed)
		return fmt.Errorf("embed document: %w", err)
	}

	p.state = Success
	p.message = msg
	if p.message == "" {
		p.message = MsgSuccess
	}
	p.title, p.content = "", ""
	return nil
}

// Close unmounts the form, cancelling any in-flight request.
func (p *Page) Close() {
	p.flight.Close()
}

// View returns a render snapshot.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		State:       p.state,
		Title:       p.title,
		Content:     p.content,
		Message:     p.message,
		Success:     p.state == Success,
		SubmitLabel: "Embed Text",
	}
	if p.state == Saving {
		v.SubmitDisabled = true
		v.SubmitLabel = "Embedding..."
	}
	return v
}

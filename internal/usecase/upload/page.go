package upload

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/usecase/flight"
)

// State is the request lifecycle state of the upload page.
type State string

const (
	Idle      State = "idle"
	Selecting State = "selecting"
	Uploading State = "uploading"
	Success   State = "success"
	Error     State = "error"
)

// User-facing messages.
const (
	MsgNoFiles = "Please select files to upload"
	MsgSuccess = "Files uploaded and embedded successfully"
	MsgFailed  = "Error uploading files"
)

// Accept is the picker hint for supported document types.
const Accept = ".pdf,.docx,.txt"

// FileRow is a pending file prepared for display.
type FileRow struct {
	Name string
	Size string
}

// View is an immutable snapshot of the page for rendering.
type View struct {
	State          State
	Files          []FileRow
	Message        string
	Success        bool
	Results        []domain.FileResult
	SubmitDisabled bool
	SubmitLabel    string
	// PickerResets increments every time the file input must be cleared.
	PickerResets int
}

// Page is one mounted upload page.
type Page struct {
	uploader Uploader
	logger   *zap.Logger
	flight   flight.Flight

	mu      sync.Mutex
	state   State
	pending []domain.UploadFile
	message string
	success bool
	results []domain.FileResult
	resets  int
}

// NewPage mounts an upload page in the Idle state.
func NewPage(uploader Uploader, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{uploader: uploader, logger: logger, state: Idle}
}

// Select replaces the pending set. An empty selection keeps the current set.
// Either way the previous outcome is cleared.
func (p *Page) Select(files []domain.UploadFile) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.flight.Closed() {
		return domain.ErrPageClosed
	}
	if p.flight.Busy() {
		return domain.ErrRequestInFlight
	}

	if len(files) > 0 {
		p.pending = append([]domain.UploadFile(nil), files...)
	}
	p.message = ""
	p.success = false
	p.results = nil
	if len(p.pending) > 0 {
		p.state = Selecting
	} else {
		p.state = Idle
	}
	return nil
}

// Submit uploads the pending set as one batch. On failure the set is kept so
// the user can retry without selecting again.
func (p *Page) Submit(ctx context.Context) error {
	p.mu.Lock()
	if p.flight.Closed() {
		p.mu.Unlock()
		return domain.ErrPageClosed
	}
	if p.flight.Busy() {
		p.mu.Unlock()
		return domain.ErrRequestInFlight
	}

	if len(p.pending) == 0 {
		p.state = Error
		p.message = MsgNoFiles
		p.success = false
		p.mu.Unlock()
		return domain.ErrNoFiles
	}

	reqCtx, err := p.flight.Begin(ctx)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	files := p.pending
	p.state = Uploading
	p.message = ""
	p.success = false
	p.results = nil
	p.mu.Unlock()

	p.logger.Debug("upload submitted", zap.Int("files", len(files)))
	summary, err := p.uploader.UploadFiles(reqCtx, files)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.flight.End() {
		return domain.ErrPageClosed
	}

	if err != nil {
		p.state = Error
		p.message = domain.UserMessage(err, MsgFailed)
		return fmt.Errorf("upload files: %w", err)
	}

	p.state = Success
	p.success = true
	p.message = summary.Message
	if p.message == "" {
		p.message = MsgSuccess
	}
	p.results = summary.Results
	p.pending = nil
	p.resets++
	return nil
}

// Pending reports the number of files waiting to be uploaded.
func (p *Page) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Close unmounts the page, cancelling any in-flight upload.
func (p *Page) Close() {
	p.flight.Close()
}

// View returns a render snapshot.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		State:        p.state,
		Message:      p.message,
		Success:      p.success,
		Results:      append([]domain.FileResult(nil), p.results...),
		SubmitLabel:  "Upload and Embed",
		PickerResets: p.resets,
	}
	if p.state == Uploading {
		v.SubmitDisabled = true
		v.SubmitLabel = "Uploading..."
	}
	v.Files = make([]FileRow, len(p.pending))
	for i, f := range p.pending {
		v.Files[i] = FileRow{Name: f.Name, Size: f.SizeKB()}
	}
	return v
}

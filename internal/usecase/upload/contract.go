package upload

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Uploader sends a batch of files to the backend for parsing and embedding.
type Uploader interface {
	UploadFiles(ctx context.Context, files []domain.UploadFile) (domain.UploadSummary, error)
}

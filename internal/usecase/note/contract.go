package note

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Embedder submits a single document for embedding.
type Embedder interface {
	EmbedDocument(ctx context.Context, doc domain.Document) (string, error)
}

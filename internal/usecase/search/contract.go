package search

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Searcher runs a semantic query against the backend.
type Searcher interface {
	SearchDocuments(ctx context.Context, query string) ([]domain.SearchResult, error)
}

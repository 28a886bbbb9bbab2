// Package backend is the typed HTTP client for the embedding and semantic
// search backend. Every call is a single request: no retries, no caching,
// no deduplication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

const (
	endpointEmbed         = "/embed/"
	endpointSearch        = "/search/"
	endpointEmbedMultiple = "/embed-multiple/"
	endpointPing          = "/"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 16 << 20
)

// Client calls the backend endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *zap.Logger
}

// NewClient creates a backend client rooted at baseURL (e.g. http://localhost:8000).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		userAgent:  "docsearch",
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// EmbedDocument sends one title+content pair for embedding and returns the
// backend's confirmation message.
func (c *Client) EmbedDocument(ctx context.Context, doc domain.Document) (string, error) {
	body, err := json.Marshal(embedRequest{Title: doc.Title, Content: doc.Content})
	if err != nil {
		return "", fmt.Errorf("encode embed request: %w", err)
	}

	var resp messageResponse
	if err := c.do(ctx, endpointEmbed, "application/json", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SearchDocuments runs a free-text query. An empty slice means "no matches"
// and is not an error. Results keep the backend's order.
func (c *Client) SearchDocuments(ctx context.Context, query string) ([]domain.SearchResult, error) {
	body, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	var resp searchResponse
	if err := c.do(ctx, endpointSearch, "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, len(resp.Results))
	for i := range resp.Results {
		results[i] = resp.Results[i].toDomain()
	}
	return results, nil
}

// UploadFiles posts a non-empty set of files as one multipart request
// (field "files", repeated) for batch embedding.
func (c *Client) UploadFiles(ctx context.Context, files []domain.UploadFile) (domain.UploadSummary, error) {
	if len(files) == 0 {
		return domain.UploadSummary{}, domain.ErrNoFiles
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return domain.UploadSummary{}, fmt.Errorf("create part %q: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return domain.UploadSummary{}, fmt.Errorf("write part %q: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return domain.UploadSummary{}, fmt.Errorf("close multipart writer: %w", err)
	}

	var resp uploadResponse
	if err := c.do(ctx, endpointEmbedMultiple, mw.FormDataContentType(), &buf, &resp); err != nil {
		return domain.UploadSummary{}, err
	}
	metrics.UploadedFilesTotal.Add(float64(len(files)))

	summary := domain.UploadSummary{
		Message: resp.Message,
		Results: make([]domain.FileResult, len(resp.Results)),
	}
	for i, r := range resp.Results {
		summary.Results[i] = domain.FileResult{Filename: r.Filename, Status: r.Status}
	}
	return summary, nil
}

// Ping checks that the backend answers HTTP at all. Any status below 500
// counts as reachable since the backend exposes no health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpointPing, http.NoBody)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewBackendError(domain.ErrBackendUnavailable, endpointPing, 0, "", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode >= http.StatusInternalServerError {
		return domain.NewBackendError(domain.ErrBackendRejected, endpointPing, resp.StatusCode, "", nil)
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// do performs one POST and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, endpoint, contentType string, body io.Reader, out any) (err error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	status := 0
	defer func() { c.observe(endpoint, start, status, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewBackendError(domain.ErrBackendUnavailable, endpoint, 0, "", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.NewBackendError(domain.ErrBackendUnavailable, endpoint, status, "", err)
	}

	if status < 200 || status > 299 {
		return domain.NewBackendError(domain.ErrBackendRejected, endpoint, status, extractDetail(raw), nil)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewBackendError(domain.ErrBackendMalformed, endpoint, status, "", err)
	}
	return nil
}

func (c *Client) observe(endpoint string, start time.Time, status int, err error) {
	dur := time.Since(start)

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrBackendRejected):
		outcome = "rejected"
	case errors.Is(err, domain.ErrBackendMalformed):
		outcome = "malformed"
	default:
		outcome = "unavailable"
	}
	metrics.BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(dur.Seconds())

	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("backend request completed",
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.Duration("duration", dur),
	)
}

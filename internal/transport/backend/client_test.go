package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(server.Close)

	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	return NewClient(server.URL+"/", opts...), &calls
}

func TestClient_EmbedDocument(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/embed/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if req["title"] != "Refunds" || req["content"] != "30 days" {
			t.Errorf("unexpected payload: %v", req)
		}
		if _, ok := req["id"]; ok {
			t.Error("id must not be sent")
		}
		_, _ = w.Write([]byte(`{"message":"Document stored successfully"}`))
	})

	msg, err := c.EmbedDocument(context.Background(), domain.Document{Title: "Refunds", Content: "30 days"})
	if err != nil {
		t.Fatalf("EmbedDocument: %v", err)
	}
	if msg != "Document stored successfully" {
		t.Errorf("got message %q", msg)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("expected 1 call, got %d", atomic.LoadInt32(calls))
	}
}

func TestClient_SearchDocuments_KeepsOrder(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["query"] != "refund policy" {
			t.Errorf("unexpected query: %q", req["query"])
		}
		_, _ = w.Write([]byte(`{"results":[
			{"id":"b","title":"Refunds","content":"full text","similarity":0.92},
			{"id":17,"title":"Returns","content":"other","similarity":0.81}
		]}`))
	})

	results, err := c.SearchDocuments(context.Background(), "refund policy")
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "b" || results[0].Similarity != 0.92 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].ID != "17" || results[1].Title != "Returns" {
		t.Errorf("numeric id not decoded: %+v", results[1])
	}
}

func TestClient_SearchDocuments_Empty(t *testing.T) {
	bodies := []string{`{"results":[]}`, `{"results":null}`, `{}`}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			results, err := c.SearchDocuments(context.Background(), "nothing")
			if err != nil {
				t.Fatalf("empty result must not be an error: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("expected no results, got %d", len(results))
			}
		})
	}
}

func TestClient_UploadFiles_Multipart(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed-multiple/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Errorf("expected 2 parts named files, got %d", len(files))
			return
		}
		if files[0].Filename != "a.txt" || files[1].Filename != "b.pdf" {
			t.Errorf("unexpected filenames: %s, %s", files[0].Filename, files[1].Filename)
		}
		f, _ := files[0].Open()
		data, _ := io.ReadAll(f)
		_ = f.Close()
		if string(data) != "hello" {
			t.Errorf("unexpected content: %q", data)
		}
		_, _ = w.Write([]byte(`{"message":"Documents processed successfully","results":[
			{"filename":"a.txt","status":"stored"},{"filename":"b.pdf","status":"stored"}]}`))
	})

	summary, err := c.UploadFiles(context.Background(), []domain.UploadFile{
		{Name: "a.txt", Size: 5, Data: []byte("hello")},
		{Name: "b.pdf", Size: 3, Data: []byte("%PD")},
	})
	if err != nil {
		t.Fatalf("UploadFiles: %v", err)
	}
	if summary.Message != "Documents processed successfully" {
		t.Errorf("got message %q", summary.Message)
	}
	if len(summary.Results) != 2 || summary.Results[1].Filename != "b.pdf" || summary.Results[1].Status != "stored" {
		t.Errorf("unexpected results: %+v", summary.Results)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("expected 1 call, got %d", atomic.LoadInt32(calls))
	}
}

func TestClient_UploadFiles_EmptySetNoRequest(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})

	_, err := c.UploadFiles(context.Background(), nil)
	if !errors.Is(err, domain.ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Errorf("expected 0 calls, got %d", atomic.LoadInt32(calls))
	}
}

func TestClient_ErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"string detail", 500, `{"detail":"Search failed"}`, "Search failed"},
		{"validation list", 422, `{"detail":[{"loc":["body","query"],"msg":"field required","type":"value_error.missing"},{"msg":"str type expected"}]}`, "field required; str type expected"},
		{"plain text", 502, `Bad Gateway`, ""},
		{"null detail", 400, `{"detail":null}`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.SearchDocuments(context.Background(), "q")
			if !errors.Is(err, domain.ErrBackendRejected) {
				t.Fatalf("expected ErrBackendRejected, got %v", err)
			}
			var be *domain.BackendError
			if !errors.As(err, &be) {
				t.Fatalf("expected *domain.BackendError, got %T", err)
			}
			if be.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", be.StatusCode, tc.status)
			}
			if be.Detail != tc.wantDetail {
				t.Errorf("detail = %q, want %q", be.Detail, tc.wantDetail)
			}
			if atomic.LoadInt32(calls) != 1 {
				t.Errorf("failed request must not be retried, got %d calls", atomic.LoadInt32(calls))
			}
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": "nope"`))
	})

	_, err := c.SearchDocuments(context.Background(), "q")
	if !errors.Is(err, domain.ErrBackendMalformed) {
		t.Fatalf("expected ErrBackendMalformed, got %v", err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url)
	_, err := c.EmbedDocument(context.Background(), domain.Document{Title: "t", Content: "c"})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if got := domain.UserMessage(err, "Error embedding document"); got != "Error embedding document" {
		t.Errorf("transport failure must fall back to generic message, got %q", got)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	start := time.Now()
	_, err := c.SearchDocuments(context.Background(), "slow")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not applied")
	}
}

func TestClient_CallerCancel(t *testing.T) {
	started := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.SearchDocuments(ctx, "abandoned")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestClient_Ping(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		http.NotFound(w, r)
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("404 should count as reachable: %v", err)
	}

	down, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if err := down.Ping(context.Background()); !errors.Is(err, domain.ErrBackendRejected) {
		t.Errorf("expected ErrBackendRejected for 503, got %v", err)
	}
}

func TestClient_UserAgent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "docsearch/") {
			t.Errorf("unexpected user agent %q", ua)
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}, WithUserAgent("docsearch/test"))

	if _, err := c.EmbedDocument(context.Background(), domain.Document{Title: "a", Content: "b"}); err != nil {
		t.Fatal(err)
	}
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := NewClient("http://localhost:8000///")
	if c.BaseURL() != "http://localhost:8000" {
		t.Errorf("got %q", c.BaseURL())
	}
}

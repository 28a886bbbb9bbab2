package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

type embedRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []searchResultDTO `json:"results"`
}

type searchResultDTO struct {
	ID         documentID `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Similarity float64    `json:"similarity"`
}

type uploadResponse struct {
	Message string          `json:"message"`
	Results []fileResultDTO `json:"results"`
}

type fileResultDTO struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// documentID accepts both string and numeric identifiers; the backend's
// table may use either a UUID or a serial key.
type documentID string

func (id *documentID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("document id: %w", err)
		}
		*id = documentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	*id = documentID(n.String())
	return nil
}

func (r *searchResultDTO) toDomain() domain.SearchResult {
	return domain.SearchResult{
		ID:         string(r.ID),
		Title:      r.Title,
		Content:    r.Content,
		Similarity: r.Similarity,
	}
}

// extractDetail extracts the "detail" field from a JSON error body.
// A plain string is returned verbatim; a validation error list
// ([{"loc": [...], "msg": "..."}]) is joined into one line.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Detail) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(parsed.Detail, &s) == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(parsed.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

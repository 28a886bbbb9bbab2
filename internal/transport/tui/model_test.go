package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/usecase/search"
)

type mockSearcher struct {
	calls    int
	searchFn func(ctx context.Context, query string) ([]domain.SearchResult, error)
}

func (m *mockSearcher) SearchDocuments(ctx context.Context, query string) ([]domain.SearchResult, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

func newModel(s *mockSearcher) Model {
	m := New(search.NewPage(s, nil), "http://localhost:8000")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func typeQuery(m Model, q string) Model {
	m.input.SetValue(q)
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestEnter_RunsSearchAsync(t *testing.T) {
	s := &mockSearcher{searchFn: func(context.Context, string) ([]domain.SearchResult, error) {
		return []domain.SearchResult{
			{ID: "a", Title: "Refund policy", Content: "Refunds within 30 days.", Similarity: 0.92},
			{ID: "b", Title: "Returns", Content: "Return shipping is free.", Similarity: 0.81},
		}, nil
	}}
	m := typeQuery(newModel(s), "refund policy")

	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("expected async search command")
	}
	if m.status != "Searching..." || !m.busy {
		t.Errorf("expected searching status, got %q", m.status)
	}

	// Enter while searching is ignored.
	m, again := press(m, tea.KeyEnter)
	if again != nil {
		t.Error("second Enter must not start another search")
	}

	next, _ := m.Update(cmd())
	m = next.(Model)

	if s.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", s.calls)
	}
	if m.busy || len(m.results) != 2 {
		t.Fatalf("expected 2 results, got %d (busy=%v)", len(m.results), m.busy)
	}
	if !strings.Contains(m.status, `2 results for "refund policy"`) {
		t.Errorf("unexpected status %q", m.status)
	}
	if !strings.Contains(m.renderCurrentResult(), "92.00%") {
		t.Error("expected first result similarity in view")
	}
}

func TestEnter_BlankQuery(t *testing.T) {
	s := &mockSearcher{}
	m := typeQuery(newModel(s), "   ")

	m, cmd := press(m, tea.KeyEnter)
	if cmd != nil {
		t.Error("blank query must not start a search")
	}
	if s.calls != 0 {
		t.Errorf("expected 0 backend calls, got %d", s.calls)
	}
	if m.status != search.MsgEmptyQuery {
		t.Errorf("expected %q, got %q", search.MsgEmptyQuery, m.status)
	}
}

func TestSearch_ErrorShowsMessage(t *testing.T) {
	s := &mockSearcher{searchFn: func(context.Context, string) ([]domain.SearchResult, error) {
		return nil, errors.New("refused")
	}}
	m := typeQuery(newModel(s), "q")

	m, cmd := press(m, tea.KeyEnter)
	next, _ := m.Update(cmd())
	m = next.(Model)

	if m.status != search.MsgFailed {
		t.Errorf("expected %q, got %q", search.MsgFailed, m.status)
	}
	if len(m.results) != 0 {
		t.Error("expected no results after failure")
	}
}

func TestArrows_CycleResults(t *testing.T) {
	s := &mockSearcher{searchFn: func(context.Context, string) ([]domain.SearchResult, error) {
		return []domain.SearchResult{{Title: "one"}, {Title: "two"}, {Title: "three"}}, nil
	}}
	m := typeQuery(newModel(s), "q")
	m, cmd := press(m, tea.KeyEnter)
	next, _ := m.Update(cmd())
	m = next.(Model)

	m, _ = press(m, tea.KeyDown)
	if m.cursor != 1 {
		t.Errorf("expected cursor 1, got %d", m.cursor)
	}
	m, _ = press(m, tea.KeyUp)
	m, _ = press(m, tea.KeyUp)
	if m.cursor != 2 {
		t.Errorf("expected cursor to wrap to 2, got %d", m.cursor)
	}
}

func TestEsc_QuitsAndClosesPage(t *testing.T) {
	s := &mockSearcher{}
	page := search.NewPage(s, nil)
	m := New(page, "")

	_, cmd := press(m, tea.KeyEsc)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if err := page.Submit(context.Background(), "q"); !errors.Is(err, domain.ErrPageClosed) {
		t.Errorf("expected page to be closed, got %v", err)
	}
}

func TestView_BeforeResize(t *testing.T) {
	m := New(search.NewPage(&mockSearcher{}, nil), "")
	if m.View() != "Loading..." {
		t.Errorf("unexpected view %q", m.View())
	}
}

func TestOverlap(t *testing.T) {
	q := tokenSet("Refund Policy")
	if got := overlap(q, "Our refund policy covers refunds."); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := overlap(q, "Shipping is free."); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestHighlightBestSentence_KeepsAllText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		keep  []string
	}{
		{
			name:  "trailing clause",
			text:  "Refunds are granted within 30 days. Contact support for exceptions",
			query: "refunds granted",
			keep:  []string{"Refunds are granted within 30 days.", " Contact support for exceptions"},
		},
		{
			name:  "truncated preview",
			text:  "Refunds take days. " + strings.Repeat("b", 20) + "...",
			query: "refunds days",
			keep:  []string{"Refunds take days.", " " + strings.Repeat("b", 20) + "..."},
		},
		{
			name:  "ellipsis mid text",
			text:  "Wait... refunds are slow",
			query: "refunds",
			keep:  []string{"Wait...", "refunds are slow"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := highlightBestSentence(tc.text, tc.query)
			for _, k := range tc.keep {
				if !strings.Contains(got, k) {
					t.Errorf("expected %q in %q", k, got)
				}
			}
		})
	}
}

func TestHighlightBestSentence_NoMatchUnmodified(t *testing.T) {
	texts := []string{
		"Refunds are granted within 30 days. Contact support for exceptions",
		"  spaced   out.  text\n\nwith lines...",
		strings.Repeat("x", 300) + "...",
	}
	for _, text := range texts {
		if got := highlightBestSentence(text, "unicorns"); got != text {
			t.Errorf("expected text unchanged, got %q", got)
		}
		if got := highlightBestSentence(text, ""); got != text {
			t.Errorf("empty query: expected text unchanged, got %q", got)
		}
	}
}

func TestSplitSentences_Contiguous(t *testing.T) {
	text := "One. Two!? three... four"
	parts := splitSentences(text)
	if strings.Join(parts, "") != text {
		t.Errorf("pieces must rebuild the text, got %q", parts)
	}
	if len(parts) != 4 || parts[3] != " four" {
		t.Errorf("unexpected pieces %q", parts)
	}
}

// Package tui is a terminal search console over the search page model.
package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/usecase/search"
)

// searchDoneMsg carries the outcome of an async submit.
type searchDoneMsg struct {
	query string
	err   error
}

// Model is the Bubble Tea model for the search console.
type Model struct {
	page     *search.Page
	backend  string
	input    textinput.Model
	viewport viewport.Model
	results  []search.ResultCard
	status   string
	cursor   int
	ready    bool
	busy     bool
	query    string
}

// New creates a console bound to page. backend is shown in the header.
func New(page *search.Page, backend string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter your search query..."
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		page:     page,
		backend:  backend,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Type a query and press Enter. Esc to quit.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and search completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, backend line, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case searchDoneMsg:
		return m.finish(msg), nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.page.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			return m.submit()
		case tea.KeyDown:
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case tea.KeyUp:
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	query := m.input.Value()
	if strings.TrimSpace(query) == "" {
		// Validated synchronously; the page never contacts the backend.
		err := m.page.Submit(context.Background(), query)
		return m.finish(searchDoneMsg{query: query, err: err}), nil
	}

	m.busy = true
	m.status = "Searching..."
	page := m.page
	return m, func() tea.Msg {
		return searchDoneMsg{query: query, err: page.Submit(context.Background(), query)}
	}
}

func (m Model) finish(msg searchDoneMsg) Model {
	if errors.Is(msg.err, domain.ErrRequestInFlight) {
		return m
	}
	m.busy = false
	if errors.Is(msg.err, domain.ErrPageClosed) {
		m.status = "Closed."
		return m
	}

	v := m.page.View()
	m.results = v.Results
	m.cursor = 0
	m.query = msg.query
	switch {
	case v.Message != "":
		m.status = v.Message
	default:
		m.status = fmt.Sprintf("%d results for %q", len(v.Results), strings.TrimSpace(msg.query))
	}
	m.viewport.SetContent(m.renderCurrentResult())
	return m
}

// View renders the layout and the selected result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("AI-Powered Documentation Search")
	backend := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("backend: " + m.backend)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + backend + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %s  Similarity: %s", m.cursor+1, len(m.results), titleStyle.Render(r.Title), r.Similarity)
	return title + "\n\n" + highlightBestSentence(r.Preview, m.query)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`[^.!?]*[.!?]+`)
)

// highlightBestSentence emphasises the sentence sharing the most words with
// query. Text outside the highlighted sentence is returned byte for byte.
func highlightBestSentence(text, query string) string {
	qTokens := tokenSet(query)
	if len(qTokens) == 0 || strings.TrimSpace(text) == "" {
		return text
	}

	sentences := splitSentences(text)
	best, bestScore := 0, 0
	for i, s := range sentences {
		if score := overlap(qTokens, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore == 0 {
		return text
	}

	s := sentences[best]
	core := strings.TrimSpace(s)
	lead := s[:strings.Index(s, core)]
	sentences[best] = lead + highlightStyle.Render(core) + s[len(lead)+len(core):]
	return strings.Join(sentences, "")
}

// splitSentences cuts text into contiguous pieces ending at a run of stops.
// Any unterminated tail is kept as the last piece.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		out = append(out, text[last:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}

func overlap(query map[string]struct{}, sentence string) int {
	seen := make(map[string]struct{})
	score := 0
	for _, t := range wordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}

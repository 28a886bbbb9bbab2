package search

import "fmt"

// PreviewLimit is the number of characters of a result body shown on a card.
const PreviewLimit = 300

// Preview truncates content to PreviewLimit characters followed by "...".
// Content at or under the limit is returned unmodified.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLimit {
		return content
	}
	return string(runes[:PreviewLimit]) + "..."
}

// Percent renders a 0–1 similarity as a percentage with two decimals (0.92 -> "92.00%").
func Percent(similarity float64) string {
	return fmt.Sprintf("%.2f%%", similarity*100)
}

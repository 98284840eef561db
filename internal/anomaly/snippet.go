package anomaly

import (
	"fmt"
	"strings"

	"gcode_inspector/internal/models"
)

// Snippet bounds for the external explanation service.
const (
	DefaultSnippetWindow   = 50
	DefaultSnippetMaxLines = 200
)

// Snippet extracts the lines around centerIdx (1-based) formatted as
// "N: content", one per line. window lines are taken on each side;
// the result never exceeds maxLines (re-centered when it would).
func Snippet(lines []models.ParsedLine, centerIdx, window, maxLines int) string {
	if len(lines) == 0 {
		return ""
	}
	if window <= 0 {
		window = DefaultSnippetWindow
	}
	if maxLines <= 0 {
		maxLines = DefaultSnippetMaxLines
	}

	idx := centerIdx - 1
	total := len(lines)

	start := max(0, idx-window)
	end := min(total, idx+window+1)

	if end-start > maxLines {
		half := maxLines / 2
		start = max(0, idx-half)
		end = min(total, idx+half)
	}

	var b strings.Builder
	for _, line := range lines[start:end] {
		fmt.Fprintf(&b, "%d: %s\n", line.Index, strings.TrimSpace(line.Raw))
	}
	return strings.TrimRight(b.String(), "\n")
}

package merge

import (
	"fmt"
	"io"
	"time"

	"gcode_inspector/internal/models"
)

// HeaderLines builds the provenance comment block prepended to a
// patched file: timestamp, original filename and per-action change
// counts, all as G-code comments.
func HeaderLines(deltas []models.LineDelta, originalName string, now time.Time) []string {
	var modified, deleted, inserted int
	for _, d := range deltas {
		switch d.Action {
		case models.DeltaModify:
			modified++
		case models.DeltaDelete:
			deleted++
		case models.DeltaInsertBefore, models.DeltaInsertAfter:
			inserted++
		}
	}

	lines := []string{
		"; ============================================",
		"; Modified by gcode_inspector",
		fmt.Sprintf("; Date: %s", now.Format("2006-01-02 15:04:05")),
	}
	if originalName != "" {
		lines = append(lines, fmt.Sprintf("; Original: %s", originalName))
	}
	lines = append(lines,
		fmt.Sprintf("; Applied %d changes", len(deltas)),
		"; ============================================",
	)
	if modified > 0 {
		lines = append(lines, fmt.Sprintf("; - Modified: %d lines", modified))
	}
	if deleted > 0 {
		lines = append(lines, fmt.Sprintf("; - Deleted: %d lines", deleted))
	}
	if inserted > 0 {
		lines = append(lines, fmt.Sprintf("; - Inserted: %d lines", inserted))
	}
	lines = append(lines, "; ============================================", ";")
	return lines
}

// WriteHeader writes the provenance block to w, one newline-terminated
// line each.
func WriteHeader(w io.Writer, deltas []models.LineDelta, originalName string, now time.Time) error {
	for _, line := range HeaderLines(deltas, originalName, now) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write provenance header: %w", err)
		}
	}
	return nil
}

package merge

import (
	"fmt"

	"gcode_inspector/internal/models"
)

// Validate inspects a delta set against the source length without
// applying anything. It reports negative indices, out-of-range indices
// and missing required content as warnings; the merge itself proceeds
// regardless and skips what it cannot place. A non-positive totalLines
// means the source length is unknown and disables the range check.
func Validate(deltas []models.LineDelta, totalLines int) []string {
	var warnings []string

	for _, d := range deltas {
		if !d.Action.Valid() {
			warnings = append(warnings, fmt.Sprintf("line %d: unknown action %q", d.LineIndex, d.Action))
			continue
		}

		if d.LineIndex < 0 {
			warnings = append(warnings, fmt.Sprintf("negative line index: %d", d.LineIndex))
		} else if totalLines > 0 && d.LineIndex >= totalLines {
			warnings = append(warnings, fmt.Sprintf("line index out of range: %d (source has %d lines)", d.LineIndex, totalLines))
		}

		if d.Action.NeedsContent() && d.NewContent == "" {
			warnings = append(warnings, fmt.Sprintf("line %d: action %s requires new_content", d.LineIndex, d.Action))
		}
	}
	return warnings
}

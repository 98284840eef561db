package sections

import (
	"regexp"
	"strconv"
	"strings"

	"gcode_inspector/internal/models"
)

// Heuristic windows and floors. The ordering of the fallback chain in
// Detect and these thresholds are the behavioral contract of the
// detector; reordering changes results.
const (
	startZSearchWindow = 500 // first-layer Z move must appear this early
	startFallbackLines = 100 // last resort START size
	endSearchWindow    = 500 // shutdown markers live this close to EOF
)

// Explicit start-of-print markers emitted by slicers, checked before
// the generic layer markers. Matched case-insensitively as substrings
// of the comment.
var startEndMarkers = []string{
	"MACHINE_START_GCODE_END",
	"START_GCODE_END",
	"START PRINTING OBJECT",
	"LAYER:0",
}

// Generic first-layer / feature-type markers. A ";" prefix is restored
// before matching so marker spellings with leading semicolons work.
var firstLayerMarkers = []string{
	";LAYER_CHANGE",
	";TYPE:",
	"; CHANGE_LAYER",
	";Z:",
}

// End-of-print comment markers, exact substrings.
var endMarkers = []string{
	"END_GCODE",
	"END GCODE",
	"END_GCODE_BEGIN",
	"END OF GCODE",
	"EXECUTABLE_BLOCK_END",
	"FILAMENT END GCODE",
	"FILAMENT-SPECIFIC END G-CODE",
}

// endWordPattern matches a standalone END word. "_" is a word
// character, so END_GCODE and HOTEND do not match.
var endWordPattern = regexp.MustCompile(`(?i)\bEND\b`)

var layerNumberPattern = regexp.MustCompile(`(?i);LAYER[:\s]*(\d+)`)

// Detect resolves the section boundaries of a parsed file. It applies
// an ordered fallback chain where the first success wins; see the
// package comment for the region semantics.
func Detect(lines []models.ParsedLine) Boundaries {
	total := len(lines)
	if total == 0 {
		return Boundaries{}
	}

	b := Boundaries{TotalLines: total, BodyEnd: total}
	b.LastLayer, b.LastLayerLine, b.LastExtrusionLine = lastLayerInfo(lines)

	b.StartEnd = detectStartEnd(lines, total)
	b.BodyEnd = detectBodyEnd(lines, total)

	// Safety floor: always reserve trailing lines as END.
	floor := min(50, max(total/20, 10))
	if b.BodyEnd > total-floor {
		b.BodyEnd = total - floor
	}

	// Consistency: an empty or inverted BODY means the END heuristics
	// fired too early; fall back to a size-proportional split.
	if b.BodyEnd <= b.StartEnd {
		b.BodyEnd = total - min(50, total/10)
	}
	if b.BodyEnd > total {
		b.BodyEnd = total
	}
	if b.BodyEnd < b.StartEnd {
		b.BodyEnd = b.StartEnd
	}
	return b
}

// detectStartEnd finds where the preheat block ends: first-layer
// marker comment, then a first-layer-height Z move, then a fixed floor.
func detectStartEnd(lines []models.ParsedLine, total int) int {
	// 1. Explicit start-block-end markers.
	for i, line := range lines {
		if line.Comment == "" {
			continue
		}
		upper := strings.ToUpper(line.Comment)
		for _, marker := range startEndMarkers {
			if strings.Contains(upper, marker) {
				return i
			}
		}
	}

	// 2. Generic layer / feature-type markers.
	for i, line := range lines {
		if line.Comment == "" {
			continue
		}
		restored := ";" + strings.ToUpper(line.Comment)
		for _, marker := range firstLayerMarkers {
			if strings.Contains(restored, marker) {
				return i
			}
		}
	}

	// 3. First upward Z move at first-layer height (below 1mm) in the
	// file head.
	window := min(startZSearchWindow, total)
	for i := 0; i < window; i++ {
		line := lines[i]
		if line.Command != "G0" && line.Command != "G1" {
			continue
		}
		if z, ok := line.Params["Z"]; ok && z > 0 && z < 1 {
			return i
		}
	}

	// 4. Fixed floor.
	return min(startFallbackLines, total)
}

// detectBodyEnd finds where shutdown begins. Returned value may exceed
// the safety floor; Detect clamps afterwards.
func detectBodyEnd(lines []models.ParsedLine, total int) int {
	searchStart := max(0, total-endSearchWindow)

	// 1. Forward scan of the file tail for an end-of-print comment.
	for i := searchStart; i < total; i++ {
		comment := lines[i].Comment
		if comment == "" {
			continue
		}
		upper := strings.ToUpper(comment)
		for _, marker := range endMarkers {
			if strings.Contains(upper, marker) {
				return i
			}
		}
		if endWordPattern.MatchString(comment) {
			return i
		}
	}

	// 2. Backward scan for a heater set to exactly zero.
	for i := total - 1; i > searchStart; i-- {
		line := lines[i]
		if !isTempCommand(line.Command) {
			continue
		}
		if s, ok := line.Params["S"]; ok && s == 0 {
			return i
		}
	}

	// 3. Backward scan for homing / motors-off, then walk further back
	// to the last extruding move and cut just after it.
	for i := total - 1; i > searchStart; i-- {
		line := lines[i]
		if line.Command != "G28" && line.Command != "M84" {
			continue
		}
		for j := i; j > searchStart; j-- {
			prev := lines[j]
			if (prev.Command == "G0" || prev.Command == "G1") && prev.HasParam("E") {
				return j + 1
			}
		}
		return i
	}

	return total
}

// lastLayerInfo scans once for the highest layer-comment number, its
// line, and the last positive extrusion line (all 1-based; 0 = none).
func lastLayerInfo(lines []models.ParsedLine) (lastLayer, lastLayerLine, lastExtrusionLine int) {
	for _, line := range lines {
		if line.Comment != "" {
			if m := layerNumberPattern.FindStringSubmatch(";" + line.Comment); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil && n > lastLayer {
					lastLayer = n
					lastLayerLine = line.Index
				}
			}
		}
		if (line.Command == "G0" || line.Command == "G1") && line.Param("E", 0) > 0 {
			lastExtrusionLine = line.Index
		}
	}
	return lastLayer, lastLayerLine, lastExtrusionLine
}

func isTempCommand(cmd string) bool {
	switch cmd {
	case "M104", "M109", "M140", "M190":
		return true
	}
	return false
}

// Package sections partitions a G-code file into the preheat (START),
// printing (BODY) and shutdown (END) regions using an ordered chain of
// heuristics. Detection is a pure function of the line sequence.
package sections

import "fmt"

// Section names one of the three file regions.
type Section string

const (
	SectionStart Section = "START_GCODE"
	SectionBody  Section = "BODY"
	SectionEnd   Section = "END_GCODE"
)

// Boundaries records where the regions split. Line indices 1..StartEnd
// are START, StartEnd+1..BodyEnd are BODY, the rest is END.
// Invariant: 0 <= StartEnd <= BodyEnd <= TotalLines.
type Boundaries struct {
	StartEnd   int `json:"start_end"`
	BodyEnd    int `json:"body_end"`
	TotalLines int `json:"total_lines"`

	// Auxiliary facts collected during detection.
	LastLayer         int `json:"last_layer"`
	LastLayerLine     int `json:"last_layer_line"`
	LastExtrusionLine int `json:"last_extrusion_line"`
}

// Section returns the region holding the given 1-based line index.
// Two comparisons, O(1).
func (b Boundaries) Section(lineIndex int) Section {
	switch {
	case lineIndex <= b.StartEnd:
		return SectionStart
	case lineIndex <= b.BodyEnd:
		return SectionBody
	default:
		return SectionEnd
	}
}

// NearEnd reports whether the line sits within threshold lines of the
// BODY/END split. Used to suppress false positives on shutdown-shaped
// commands near the end of the print.
func (b Boundaries) NearEnd(lineIndex, threshold int) bool {
	return lineIndex > b.BodyEnd-threshold
}

func (b Boundaries) String() string {
	return fmt.Sprintf("Boundaries(START: 1-%d, BODY: %d-%d, END: %d-%d, last_layer=%d)",
		b.StartEnd, b.StartEnd+1, b.BodyEnd, b.BodyEnd+1, b.TotalLines, b.LastLayer)
}

// Info describes where a line sits inside its section.
type Info struct {
	Section           Section `json:"section"`
	PositionInSection int     `json:"position_in_section"`
	SectionSize       int     `json:"section_size"`
	Progress          float64 `json:"progress_in_section"` // normalized 0..1
	TotalLines        int     `json:"total_lines"`
	LastLayer         int     `json:"last_layer"`
	NearEnd           bool    `json:"is_near_end"`
}

// defaultNearEndThreshold matches the suppression window used by the
// anomaly pipeline.
const defaultNearEndThreshold = 50

// Locate returns the section of a line together with its normalized
// position inside that section.
func (b Boundaries) Locate(lineIndex int) Info {
	section := b.Section(lineIndex)

	var position, size int
	switch section {
	case SectionStart:
		position = lineIndex
		size = b.StartEnd
	case SectionBody:
		position = lineIndex - b.StartEnd
		size = b.BodyEnd - b.StartEnd
	default:
		position = lineIndex - b.BodyEnd
		size = b.TotalLines - b.BodyEnd
	}

	progress := 0.0
	if size > 0 {
		progress = float64(position) / float64(size)
	}

	return Info{
		Section:           section,
		PositionInSection: position,
		SectionSize:       size,
		Progress:          progress,
		TotalLines:        b.TotalLines,
		LastLayer:         b.LastLayer,
		NearEnd:           b.NearEnd(lineIndex, defaultNearEndThreshold),
	}
}

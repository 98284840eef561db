package models

// ParsedLine is one G-code instruction in structured form. It is built
// once by the parser and never mutated afterwards.
type ParsedLine struct {
	Index   int                `json:"index"` // 1-based line number in the original file
	Raw     string             `json:"raw"`
	Command string             `json:"command"`           // G1, G0, M104, ... ("" when no mnemonic)
	Params  map[string]float64 `json:"params"`            // {"X": 10.2, "E": 42.123}
	Comment string             `json:"comment,omitempty"` // text after the first ';'
}

// HasParam reports whether the line carries the given parameter letter.
func (l ParsedLine) HasParam(key string) bool {
	_, ok := l.Params[key]
	return ok
}

// Param returns the value of a parameter letter, or def when absent.
func (l ParsedLine) Param(key string, def float64) float64 {
	if v, ok := l.Params[key]; ok {
		return v
	}
	return def
}

// TempEvent is a single temperature-setting command (M104/M109 for the
// nozzle, M140/M190 for the bed). Events are ordered by LineIndex.
type TempEvent struct {
	LineIndex int     `json:"line_index"`
	Temp      float64 `json:"temp"`
	Command   string  `json:"command"`
}

// IsNozzle reports whether the event targets the hotend rather than the bed.
func (e TempEvent) IsNozzle() bool {
	return e.Command == "M104" || e.Command == "M109"
}

// IsBed reports whether the event targets the heated bed.
func (e TempEvent) IsBed() bool {
	return e.Command == "M140" || e.Command == "M190"
}

// Package rules runs firmware-aware structural checks over a parsed
// G-code file. The engine family is closed: a Base engine interprets
// standard mnemonics only, while the Klipper and Bambu variants accept
// vendor-specific temperature evidence. Variant behavior is confined
// to four hook points (nozzle check, bed check, wait check, critical
// flags); everything else is shared.
package rules

import (
	"gcode_inspector/internal/models"
)

// Kind names a rule-engine variant.
type Kind string

const (
	KindBase    Kind = "base"
	KindKlipper Kind = "klipper"
	KindBambu   Kind = "bambu"
)

// Check names reported in CheckResult.Name.
const (
	CheckNozzleTempExists      = "nozzle_temp_exists"
	CheckBedTempExists         = "bed_temp_exists"
	CheckTempWaitBeforeExtrude = "temp_wait_before_extrusion"
	CheckFeedRateExists        = "feed_rate_exists"
)

// CheckResult is the outcome of one structural check. Checks never
// fail hard: an internal error inside a check degrades only that check.
type CheckResult struct {
	Name       string         `json:"check_name"`
	Passed     bool           `json:"passed"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Skipped    bool           `json:"skipped,omitempty"`
	SkipReason string         `json:"skip_reason,omitempty"`
}

// TempReading is one classified temperature event for reporting.
type TempReading struct {
	Line    int     `json:"line"`
	Command string  `json:"cmd"`
	Temp    float64 `json:"temp"`
	Section string  `json:"section"`
}

// SpeedStats summarizes feed rates, converted to mm/s.
type SpeedStats struct {
	MinMMS       float64 `json:"min_mms"`
	MaxMMS       float64 `json:"max_mms"`
	AvgMMS       float64 `json:"avg_mms"`
	PrintAvgMMS  float64 `json:"print_avg_mms"`
	TravelAvgMMS float64 `json:"travel_avg_mms"`
	Count        int     `json:"count"`
}

// ExtractedData is the structured summary handed to the surrounding
// API/explanation layer.
type ExtractedData struct {
	HasNozzleTemp     bool          `json:"has_nozzle_temp"`
	HasBedTemp        bool          `json:"has_bed_temp"`
	NozzleTemps       []TempReading `json:"nozzle_temps,omitempty"`
	BedTemps          []TempReading `json:"bed_temps,omitempty"`
	TempChangesInBody []TempReading `json:"temp_changes_in_body,omitempty"`

	HasFeedRate bool        `json:"has_feed_rate"`
	SpeedStats  *SpeedStats `json:"speed_stats,omitempty"`

	FirstExtrusionLine      int  `json:"first_extrusion_line,omitempty"`
	LastExtrusionLine       int  `json:"last_extrusion_line,omitempty"`
	ExtrusionBeforeTempWait bool `json:"extrusion_before_temp_wait"`

	SectionInfo    map[string]any        `json:"section_info"`
	PrinterContext models.PrinterContext `json:"printer_context"`
}

// Output is the final rule-engine result.
type Output struct {
	Checks         []CheckResult `json:"basic_checks"`
	Extracted      ExtractedData `json:"extracted_data"`
	CriticalFlags  []string      `json:"critical_flags"`
	EngineKind     Kind          `json:"engine_type"`
	QualityScore   int           `json:"quality_score"`
	QualityMessage string        `json:"quality_message"`
}

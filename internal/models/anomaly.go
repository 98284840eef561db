package models

// AnomalyType is the closed set of structural defects the detectors
// can report.
type AnomalyType string

const (
	AnomalyColdExtrusion   AnomalyType = "cold_extrusion"
	AnomalyEarlyTempOff    AnomalyType = "early_temp_off"
	AnomalyRapidTempChange AnomalyType = "rapid_temp_change"
	AnomalyLowTemp         AnomalyType = "low_temp"
	AnomalyBedTempOffEarly AnomalyType = "bed_temp_off_early"
)

// Severity orders anomalies from most to least dangerous.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank maps a severity to its sort position; unknown values
// sort last.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort position of the severity, critical first.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// MaxSeverity returns the most dangerous severity in the list, or
// SeverityLow for an empty list.
func MaxSeverity(severities []Severity) Severity {
	best := SeverityLow
	for _, s := range severities {
		if s.Rank() < best.Rank() {
			best = s
		}
	}
	return best
}

// Anomaly is one detected defect. Immutable result value.
type Anomaly struct {
	Type       AnomalyType    `json:"type"`
	LineIndex  int            `json:"line_index"`
	Severity   Severity       `json:"severity"`
	TempBefore *float64       `json:"temp_before,omitempty"`
	TempAfter  *float64       `json:"temp_after,omitempty"`
	Message    string         `json:"message"`
	Context    map[string]any `json:"context,omitempty"`
}

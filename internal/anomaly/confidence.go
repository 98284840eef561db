// Package anomaly grades temperature events and detects structural
// print defects. The classifier errs toward escalation: an ambiguous
// event is marked for deeper analysis, never silently passed.
package anomaly

import (
	"fmt"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/sections"
)

// Confidence grades how certain the rule-based classification is.
type Confidence string

const (
	ConfidenceCertain  Confidence = "certain"  // definite problem
	ConfidenceProbable Confidence = "probable" // likely problem, escalate
	ConfidenceUnlikely Confidence = "unlikely" // probably fine
	ConfidenceNormal   Confidence = "normal"   // no escalation needed
)

// Thresholds of the event decision table.
const (
	rapidChangeDelta = 50 // °C jump treated as rapid
	minorTuningDelta = 20 // °C jump treated as minor tuning
)

// EventAnalysis is the graded classification of one temperature event.
type EventAnalysis struct {
	Event       models.TempEvent   `json:"event"`
	Section     sections.Section   `json:"section"`
	SectionInfo sections.Info      `json:"section_info"`
	IsAnomaly   bool               `json:"is_anomaly"`
	Confidence  Confidence         `json:"confidence"`
	AnomalyType models.AnomalyType `json:"anomaly_type,omitempty"`
	Reason      string             `json:"reason"`

	// NeedsEscalation marks events the rule layer cannot clear on its
	// own; the surrounding service forwards them for deeper analysis.
	NeedsEscalation bool `json:"needs_escalation"`
}

// AnalyzeEvent classifies one temperature event against the section it
// falls in and the immediately preceding event (nil for the first).
//
// The rules form an ordered decision table with overlapping conditions;
// the first match wins and the order is part of the contract.
func AnalyzeEvent(event models.TempEvent, prev *models.TempEvent, bounds sections.Boundaries) EventAnalysis {
	info := bounds.Locate(event.LineIndex)
	section := info.Section
	linesAfter := bounds.TotalLines - event.LineIndex

	res := EventAnalysis{
		Event:       event,
		Section:     section,
		SectionInfo: info,
	}

	switch {
	// 1. Heater off inside the shutdown block.
	case section == sections.SectionEnd && event.Temp == 0:
		res.Confidence = ConfidenceNormal
		res.Reason = "turning the heater off in the end block is normal"

	// 2. Preheat inside the start block.
	case section == sections.SectionStart && event.Temp > 0:
		res.Confidence = ConfidenceNormal
		res.Reason = "setting a temperature in the start block is normal"

	// 3. Heater forced off mid-print.
	case section == sections.SectionBody && event.Temp == 0:
		res.IsAnomaly = true
		res.Confidence = ConfidenceCertain
		res.AnomalyType = models.AnomalyEarlyTempOff
		res.Reason = fmt.Sprintf("temperature set to 0 in the print body; %d lines remain", linesAfter)
		res.NeedsEscalation = true

	// 4. Rapid change versus the previous event.
	case prev != nil && abs(event.Temp-prev.Temp) >= rapidChangeDelta:
		if section == sections.SectionEnd {
			res.Confidence = ConfidenceUnlikely
			res.Reason = "large temperature swings are common in the end block"
		} else {
			res.IsAnomaly = true
			res.Confidence = ConfidenceProbable
			res.AnomalyType = models.AnomalyRapidTempChange
			res.Reason = fmt.Sprintf("temperature jumped %g°C -> %g°C", prev.Temp, event.Temp)
			res.NeedsEscalation = true
		}

	// 5. Very first temperature event.
	case prev == nil && event.Temp > 0:
		res.Confidence = ConfidenceNormal
		res.Reason = "initial preheat"

	// 6/7. Mid-print retarget.
	case section == sections.SectionBody && event.Temp > 0:
		if prev != nil && abs(event.Temp-prev.Temp) < minorTuningDelta {
			res.Confidence = ConfidenceUnlikely
			res.Reason = fmt.Sprintf("minor tuning (%g°C -> %g°C)", prev.Temp, event.Temp)
		} else {
			res.Confidence = ConfidenceProbable
			res.Reason = fmt.Sprintf("mid-print temperature change to %g°C; verify it is intentional", event.Temp)
			res.NeedsEscalation = true
		}

	// 8. Anything else is escalated rather than guessed at.
	default:
		res.Confidence = ConfidenceProbable
		res.Reason = "needs deeper analysis"
		res.NeedsEscalation = true
	}

	return res
}

// AnalyzeEvents classifies every event in order, threading the
// previous event through the table.
func AnalyzeEvents(events []models.TempEvent, bounds sections.Boundaries) []EventAnalysis {
	results := make([]EventAnalysis, 0, len(events))
	var prev *models.TempEvent
	for i := range events {
		results = append(results, AnalyzeEvent(events[i], prev, bounds))
		prev = &events[i]
	}
	return results
}

// EventSummary aggregates classification counters for reporting.
type EventSummary struct {
	TotalEvents        int                `json:"total_events"`
	BySection          map[string]int     `json:"by_section"`
	ByConfidence       map[Confidence]int `json:"by_confidence"`
	ConfirmedAnomalies int                `json:"confirmed_anomalies"`
	NeedsEscalation    int                `json:"needs_escalation"`
	NormalEvents       int                `json:"normal_events"`
}

// Summarize tallies a set of event analyses.
func Summarize(results []EventAnalysis) EventSummary {
	s := EventSummary{
		TotalEvents:  len(results),
		BySection:    map[string]int{},
		ByConfidence: map[Confidence]int{},
	}
	for _, r := range results {
		s.BySection[string(r.Section)]++
		s.ByConfidence[r.Confidence]++
		if r.IsAnomaly {
			s.ConfirmedAnomalies++
		}
		if r.NeedsEscalation {
			s.NeedsEscalation++
		}
	}
	s.NormalEvents = s.TotalEvents - s.NeedsEscalation
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

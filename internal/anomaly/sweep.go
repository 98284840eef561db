package anomaly

import (
	"fmt"
	"sort"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/profile"
	"gcode_inspector/internal/sections"
)

// Sweep issue types.
const (
	IssueTempZeroInBody = "temp_zero_in_body"
	IssueColdExtrusion  = "cold_extrusion"
	IssueRapidTempDrop  = "rapid_temp_drop"
)

const (
	// fallbackMinTemp applies when neither a filament profile nor an
	// initial nozzle temperature is available.
	fallbackMinTemp = 180.0
	// initialTempTolerance derives the floor from the first observed
	// nozzle temperature when no profile is given.
	initialTempTolerance = 0.95
	// rapidDropDelta flags a single-step temperature drop, °C.
	rapidDropDelta = 50.0
)

// TempIssue is one finding of the full-BODY temperature sweep.
type TempIssue struct {
	Type        string          `json:"type"`
	Line        int             `json:"line"`
	Severity    models.Severity `json:"severity"`
	Temp        float64         `json:"temp"`
	TempBefore  float64         `json:"temp_before,omitempty"`
	TempDrop    float64         `json:"temp_drop,omitempty"`
	MinTemp     float64         `json:"min_temp,omitempty"`
	Command     string          `json:"cmd"`
	Description string          `json:"description"`
}

// IssueGroup collapses same-type issues into one record that keeps
// every member line. Single occurrences stay ungrouped.
type IssueGroup struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	IsGrouped   bool            `json:"is_grouped"`
	Count       int             `json:"count"`
	Severity    models.Severity `json:"severity"`
	Lines       []int           `json:"lines"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Issues      []TempIssue     `json:"all_issues"`
}

// SweepReport is the full result of ScanTemperatures.
type SweepReport struct {
	Issues  []TempIssue  `json:"issues"`
	Grouped []IssueGroup `json:"grouped_issues"`
	Summary SweepSummary `json:"summary"`
}

type SweepSummary struct {
	TotalIssues      int     `json:"total_issues"`
	GroupedCount     int     `json:"grouped_count"`
	FilamentType     string  `json:"filament_type"`
	MinTempThreshold float64 `json:"min_temp_threshold"`
	InitialTemp      float64 `json:"initial_temp,omitempty"`
}

// ResolveMinTemp picks the cold-extrusion floor: filament profile
// minimum, else a tolerance below the first observed nozzle
// temperature, else the fixed fallback.
func ResolveMinTemp(filament *profile.Filament, events []models.TempEvent) (minTemp, initialTemp float64) {
	for _, e := range events {
		if e.IsNozzle() && e.Temp > 0 {
			initialTemp = e.Temp
			break
		}
	}

	switch {
	case filament != nil:
		return filament.MinNozzleTemp, initialTemp
	case initialTemp > 0:
		return initialTemp * initialTempTolerance, initialTemp
	default:
		return fallbackMinTemp, initialTemp
	}
}

// ScanTemperatures sweeps every nozzle event in the BODY section for
// forced-zero, below-minimum and rapid-drop patterns. Events outside
// BODY only advance the previous-temperature state.
func ScanTemperatures(
	events []models.TempEvent,
	lines []models.ParsedLine,
	bounds sections.Boundaries,
	filament *profile.Filament,
	filamentName string,
) SweepReport {
	minTemp, initialTemp := ResolveMinTemp(filament, events)

	lineByIndex := map[int]models.ParsedLine{}
	for _, line := range lines {
		lineByIndex[line.Index] = line
	}

	var issues []TempIssue
	prevSet := false
	prevTemp := 0.0

	for _, event := range events {
		if !event.IsNozzle() {
			continue
		}

		if bounds.Section(event.LineIndex) != sections.SectionBody {
			prevTemp, prevSet = event.Temp, true
			continue
		}

		exempt := false
		if line, ok := lineByIndex[event.LineIndex]; ok {
			exempt = hasAuxMarker(line.Raw)
		}

		switch {
		case event.Temp == 0 && !exempt:
			issues = append(issues, TempIssue{
				Type:        IssueTempZeroInBody,
				Line:        event.LineIndex,
				Severity:    models.SeverityCritical,
				Temp:        event.Temp,
				Command:     event.Command,
				Description: fmt.Sprintf("nozzle temperature forced to 0 mid-print (%s S0)", event.Command),
			})
		case event.Temp > 0 && event.Temp < minTemp && !exempt:
			issues = append(issues, TempIssue{
				Type:        IssueColdExtrusion,
				Line:        event.LineIndex,
				Severity:    models.SeverityCritical,
				Temp:        event.Temp,
				MinTemp:     minTemp,
				Command:     event.Command,
				Description: fmt.Sprintf("cold-extrusion risk: %g°C (minimum %.0f°C required)", event.Temp, minTemp),
			})
		}

		if prevSet && prevTemp > 0 {
			drop := prevTemp - event.Temp
			if drop >= rapidDropDelta && event.Temp > 0 {
				issues = append(issues, TempIssue{
					Type:        IssueRapidTempDrop,
					Line:        event.LineIndex,
					Severity:    models.SeverityHigh,
					Temp:        event.Temp,
					TempBefore:  prevTemp,
					TempDrop:    drop,
					Command:     event.Command,
					Description: fmt.Sprintf("rapid temperature drop: %g°C -> %g°C (-%g°C)", prevTemp, event.Temp, drop),
				})
			}
		}

		prevTemp, prevSet = event.Temp, true
	}

	grouped := groupIssues(issues, minTemp)
	return SweepReport{
		Issues:  issues,
		Grouped: grouped,
		Summary: SweepSummary{
			TotalIssues:      len(issues),
			GroupedCount:     len(grouped),
			FilamentType:     orUnknown(filamentName),
			MinTempThreshold: minTemp,
			InitialTemp:      initialTemp,
		},
	}
}

// groupIssues collapses same-type occurrences (>= 2) into one grouped
// record and sorts the result by severity rank.
func groupIssues(issues []TempIssue, minTemp float64) []IssueGroup {
	if len(issues) == 0 {
		return nil
	}

	byType := map[string][]TempIssue{}
	var order []string
	for _, issue := range issues {
		if _, seen := byType[issue.Type]; !seen {
			order = append(order, issue.Type)
		}
		byType[issue.Type] = append(byType[issue.Type], issue)
	}

	var groups []IssueGroup
	for i, typ := range order {
		members := byType[typ]
		lines := make([]int, len(members))
		severities := make([]models.Severity, len(members))
		for j, m := range members {
			lines[j] = m.Line
			severities[j] = m.Severity
		}

		if len(members) == 1 {
			groups = append(groups, IssueGroup{
				ID:          fmt.Sprintf("TEMP-%d", i+1),
				Type:        typ,
				Count:       1,
				Severity:    members[0].Severity,
				Lines:       lines,
				Title:       issueTitle(typ),
				Description: members[0].Description,
				Issues:      members,
			})
			continue
		}

		groups = append(groups, IssueGroup{
			ID:          fmt.Sprintf("TEMP-GROUP-%d", i+1),
			Type:        typ,
			IsGrouped:   true,
			Count:       len(members),
			Severity:    models.MaxSeverity(severities),
			Lines:       lines,
			Title:       issueTitle(typ),
			Description: groupedDescription(typ, len(members), minTemp),
			Issues:      members,
		})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Severity.Rank() < groups[b].Severity.Rank()
	})
	return groups
}

func issueTitle(typ string) string {
	switch typ {
	case IssueTempZeroInBody:
		return "heater turned off mid-print"
	case IssueColdExtrusion:
		return "cold-extrusion risk"
	case IssueRapidTempDrop:
		return "rapid temperature drop"
	}
	return typ
}

func groupedDescription(typ string, count int, minTemp float64) string {
	switch typ {
	case IssueTempZeroInBody:
		return fmt.Sprintf("nozzle temperature forced to 0 mid-print at %d locations", count)
	case IssueColdExtrusion:
		return fmt.Sprintf("%d locations below the %.0f°C minimum", count, minTemp)
	case IssueRapidTempDrop:
		return fmt.Sprintf("%d temperature drops of %g°C or more", count, rapidDropDelta)
	}
	return fmt.Sprintf("%s: %d occurrences", typ, count)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

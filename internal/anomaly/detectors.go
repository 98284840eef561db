package anomaly

import (
	"fmt"
	"sort"
	"strings"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/sections"
)

// DefaultSafeExtrusionTemp is the fixed nozzle floor used by the
// standalone cold-extrusion detector when the caller has no override.
const DefaultSafeExtrusionTemp = 170.0

// CheckColdExtrusion replays the set-temperature state line by line and
// flags a positive extrusion move while the last known nozzle
// temperature sits below safeTemp. Only BODY-section moves are
// flagged: start blocks legitimately prime before the heater target is
// reached, and the state before the first set command is unknown.
func CheckColdExtrusion(lines []models.ParsedLine, bounds sections.Boundaries, safeTemp float64) []models.Anomaly {
	if safeTemp <= 0 {
		safeTemp = DefaultSafeExtrusionTemp
	}

	var anomalies []models.Anomaly
	currentTemp := 0.0

	for _, line := range lines {
		if (line.Command == "M104" || line.Command == "M109") && line.HasParam("S") {
			currentTemp = line.Params["S"]
		}

		if line.Command != "G1" && line.Command != "G0" {
			continue
		}
		eVal, ok := line.Params["E"]
		if !ok || eVal <= 0 {
			continue
		}
		if currentTemp >= safeTemp {
			continue
		}
		if bounds.Section(line.Index) != sections.SectionBody {
			continue
		}

		temp := currentTemp
		anomalies = append(anomalies, models.Anomaly{
			Type:       models.AnomalyColdExtrusion,
			LineIndex:  line.Index,
			Severity:   models.SeverityHigh,
			TempBefore: &temp,
			Message:    fmt.Sprintf("extrusion attempted with a cold nozzle (%g°C)", currentTemp),
			Context:    map[string]any{"temp": currentTemp, "e_val": eVal},
		})
	}
	return anomalies
}

// CheckEarlyTempOff flags every nozzle-off command that is followed,
// anywhere later in the file, by another extrusion move. No section
// gate: a heater-off with printing still ahead is wrong wherever it
// sits.
func CheckEarlyTempOff(lines []models.ParsedLine) []models.Anomaly {
	if len(lines) == 0 {
		return nil
	}

	var offIndices []int
	for _, line := range lines {
		if line.Command == "M104" && line.HasParam("S") && line.Params["S"] == 0 {
			offIndices = append(offIndices, line.Index)
		}
	}
	if len(offIndices) == 0 {
		return nil
	}

	var anomalies []models.Anomaly
	for _, offIdx := range offIndices {
		// offIdx is 1-based, so lines[offIdx:] starts at the line after
		// the off command.
		for i := offIdx; i < len(lines); i++ {
			line := lines[i]
			if (line.Command == "G1" || line.Command == "G0") && line.HasParam("E") {
				anomalies = append(anomalies, models.Anomaly{
					Type:      models.AnomalyEarlyTempOff,
					LineIndex: offIdx,
					Severity:  models.SeverityMedium,
					Message:   "temperature set to 0 with printing still remaining",
					Context:   map[string]any{"next_extrusion_line": line.Index},
				})
				break
			}
		}
	}
	return anomalies
}

// Detect runs every structural detector and returns the merged list
// sorted ascending by line index, regardless of detector emission
// order.
func Detect(lines []models.ParsedLine, bounds sections.Boundaries, safeTemp float64) []models.Anomaly {
	var anomalies []models.Anomaly
	anomalies = append(anomalies, CheckColdExtrusion(lines, bounds, safeTemp)...)
	anomalies = append(anomalies, CheckEarlyTempOff(lines)...)

	sort.SliceStable(anomalies, func(a, b int) bool {
		return anomalies[a].LineIndex < anomalies[b].LineIndex
	})
	return anomalies
}

// hasAuxMarker reports whether a raw temperature line carries the H
// parameter marking an idle secondary nozzle.
func hasAuxMarker(raw string) bool {
	upper := strings.ToUpper(raw)
	return strings.Contains(upper, " H") || strings.Contains(upper, "\tH")
}

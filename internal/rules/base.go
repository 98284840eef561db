package rules

import (
	"fmt"
	"strings"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/sections"
)

// Critical flag prefixes. A flag is an opaque code naming an
// unambiguous dangerous condition, independent of the graded anomaly
// model.
const (
	FlagBodyTempZero      = "BODY_TEMP_ZERO"
	FlagColdExtrusionZero = "COLD_EXTRUSION_ZERO"
)

// baseVariant interprets standard mnemonics only.
type baseVariant struct{}

func (baseVariant) kind() Kind { return KindBase }

func (baseVariant) checkNozzleTemp(in input) CheckResult {
	var nozzle []models.TempEvent
	for _, e := range in.events {
		if e.IsNozzle() && e.Temp > 0 {
			nozzle = append(nozzle, e)
		}
	}

	if len(nozzle) == 0 {
		return CheckResult{
			Name:    CheckNozzleTempExists,
			Passed:  false,
			Message: "no nozzle temperature set",
			Details: map[string]any{"count": 0},
		}
	}

	var inStart []models.TempEvent
	for _, e := range nozzle {
		if in.bounds.Section(e.LineIndex) == sections.SectionStart {
			inStart = append(inStart, e)
		}
	}
	if len(inStart) == 0 {
		return CheckResult{
			Name:    CheckNozzleTempExists,
			Passed:  true,
			Message: "nozzle temperature set outside the start block",
			Details: map[string]any{
				"count":   len(nozzle),
				"warning": "setting the temperature in the start block is recommended",
			},
		}
	}

	return CheckResult{
		Name:    CheckNozzleTempExists,
		Passed:  true,
		Message: "nozzle temperature set",
		Details: map[string]any{"count": len(nozzle), "first_temp": inStart[0].Temp},
	}
}

func (baseVariant) checkBedTemp(in input) CheckResult {
	count := 0
	first := 0.0
	for _, e := range in.events {
		if e.IsBed() && e.Temp > 0 {
			if count == 0 {
				first = e.Temp
			}
			count++
		}
	}

	if count == 0 {
		return CheckResult{
			Name:    CheckBedTempExists,
			Passed:  false,
			Message: "no bed temperature set (first-layer adhesion at risk)",
			Details: map[string]any{"count": 0},
		}
	}
	return CheckResult{
		Name:    CheckBedTempExists,
		Passed:  true,
		Message: "bed temperature set",
		Details: map[string]any{"count": count, "first_temp": first},
	}
}

func (baseVariant) checkTempWait(in input) CheckResult {
	var waits []int
	for _, e := range in.events {
		if e.Command == "M109" && e.Temp > 0 {
			waits = append(waits, e.LineIndex)
		}
	}

	firstExtrusion := firstExtrusionLine(in.lines)
	if firstExtrusion == 0 {
		return CheckResult{
			Name:    CheckTempWaitBeforeExtrude,
			Passed:  true,
			Message: "no extrusion command in the file",
		}
	}

	for _, w := range waits {
		if w < firstExtrusion {
			return CheckResult{
				Name:    CheckTempWaitBeforeExtrude,
				Passed:  true,
				Message: "temperature wait precedes first extrusion",
				Details: map[string]any{"first_extrusion_line": firstExtrusion},
			}
		}
	}
	return CheckResult{
		Name:    CheckTempWaitBeforeExtrude,
		Passed:  false,
		Message: "extrusion starts without a temperature wait (M109)",
		Details: map[string]any{
			"first_extrusion_line": firstExtrusion,
			"has_m109":             len(waits) > 0,
		},
	}
}

// criticalFlags detects the unambiguous hardware-damage conditions:
// a BODY-section nozzle-off (unless the line carries the auxiliary
// nozzle marker), and extrusion while the set temperature is zero.
func (baseVariant) criticalFlags(in input) []string {
	var flags []string

	lineByIndex := map[int]models.ParsedLine{}
	for _, line := range in.lines {
		lineByIndex[line.Index] = line
	}

	for _, event := range in.events {
		if !event.IsNozzle() || event.Temp != 0 {
			continue
		}
		if in.bounds.Section(event.LineIndex) != sections.SectionBody {
			continue
		}
		if line, ok := lineByIndex[event.LineIndex]; ok && hasAuxNozzleMarker(line.Raw) {
			continue
		}
		flags = append(flags, fmt.Sprintf("%s:line_%d", FlagBodyTempZero, event.LineIndex))
	}

	currentTemp := 0.0
	for _, line := range in.lines {
		if (line.Command == "M104" || line.Command == "M109") && line.HasParam("S") {
			currentTemp = line.Params["S"]
		}
		if line.Command == "G1" && line.Param("E", 0) > 0 && currentTemp == 0 {
			if in.bounds.Section(line.Index) == sections.SectionBody {
				flags = append(flags, fmt.Sprintf("%s:line_%d", FlagColdExtrusionZero, line.Index))
				break
			}
		}
	}

	return flags
}

// hasAuxNozzleMarker reports whether a raw temperature line carries the
// H parameter marking an idle secondary nozzle rather than a real
// shutdown.
func hasAuxNozzleMarker(raw string) bool {
	upper := strings.ToUpper(raw)
	return strings.Contains(upper, " H") || strings.Contains(upper, "\tH")
}

func firstExtrusionLine(lines []models.ParsedLine) int {
	for _, line := range lines {
		if line.Command == "G1" && line.Param("E", 0) > 0 {
			return line.Index
		}
	}
	return 0
}

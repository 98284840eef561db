package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gcode_inspector/internal/models"
)

// bambuVariant recognizes Bambu Lab syntax: the G9111 command carrying
// bedTemp=/extruderTemp= key=value pairs, and the H parameter marking
// a secondary nozzle on multi-nozzle machines.
type bambuVariant struct {
	baseVariant
	equipmentModel string
}

func (bambuVariant) kind() Kind { return KindBambu }

var (
	g9111BedTemp      = regexp.MustCompile(`(?i)bedTemp\s*=\s*(\d+(?:\.\d+)?)`)
	g9111ExtruderTemp = regexp.MustCompile(`(?i)extruderTemp\s*=\s*(\d+(?:\.\d+)?)`)
)

// g9111Temps extracts temperatures from the first G9111 line that
// carries any.
func g9111Temps(lines []models.ParsedLine) (bed, extruder float64, found bool) {
	for _, line := range lines {
		if line.Command != "G9111" {
			continue
		}
		if m := g9111BedTemp.FindStringSubmatch(line.Raw); m != nil {
			bed, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := g9111ExtruderTemp.FindStringSubmatch(line.Raw); m != nil {
			extruder, _ = strconv.ParseFloat(m[1], 64)
		}
		if bed > 0 || extruder > 0 {
			return bed, extruder, true
		}
	}
	return 0, 0, false
}

func (v bambuVariant) isX1Series() bool {
	return strings.Contains(strings.ToUpper(v.equipmentModel), "X1")
}

func (v bambuVariant) checkNozzleTemp(in input) CheckResult {
	count := 0
	first := 0.0
	for _, e := range in.events {
		if e.IsNozzle() && e.Temp > 0 {
			if count == 0 {
				first = e.Temp
			}
			count++
		}
	}
	if count > 0 {
		return CheckResult{
			Name:    CheckNozzleTempExists,
			Passed:  true,
			Message: "nozzle temperature set",
			Details: map[string]any{"count": count, "first_temp": first, "source": "standard"},
		}
	}

	if _, extruder, ok := g9111Temps(in.lines); ok && extruder > 0 {
		return CheckResult{
			Name:    CheckNozzleTempExists,
			Passed:  true,
			Message: "nozzle temperature set via G9111",
			Details: map[string]any{"temp": extruder, "source": "G9111"},
		}
	}

	return CheckResult{
		Name:    CheckNozzleTempExists,
		Passed:  false,
		Message: "no nozzle temperature set",
		Details: map[string]any{"count": 0},
	}
}

func (v bambuVariant) checkBedTemp(in input) CheckResult {
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
	if count > 0 {
		return CheckResult{
			Name:    CheckBedTempExists,
			Passed:  true,
			Message: "bed temperature set",
			Details: map[string]any{"count": count, "first_temp": first, "source": "standard"},
		}
	}

	if bed, _, ok := g9111Temps(in.lines); ok && bed > 0 {
		return CheckResult{
			Name:    CheckBedTempExists,
			Passed:  true,
			Message: "bed temperature set via G9111",
			Details: map[string]any{"temp": bed, "source": "G9111"},
		}
	}

	return CheckResult{
		Name:    CheckBedTempExists,
		Passed:  false,
		Message: "no bed temperature set",
		Details: map[string]any{"count": 0},
	}
}

func (v bambuVariant) checkTempWait(in input) CheckResult {
	// A G9111 temperature block means the printer waits internally.
	if _, extruder, ok := g9111Temps(in.lines); ok && extruder > 0 {
		return CheckResult{
			Name:    CheckTempWaitBeforeExtrude,
			Passed:  true,
			Message: fmt.Sprintf("temperature wait handled by printer (G9111 extruderTemp=%g)", extruder),
			Details: map[string]any{"source": "G9111", "extruder_temp": extruder},
		}
	}
	res := v.baseVariant.checkTempWait(in)
	if !res.Passed && v.isX1Series() {
		// X1-series start sequences always carry a G9111 block, so its
		// absence on top of a missing M109 is worth calling out.
		if res.Details == nil {
			res.Details = map[string]any{}
		}
		res.Details["expected_g9111"] = true
		res.Message += "; no G9111 temperature block found for an X1-series machine"
	}
	return res
}

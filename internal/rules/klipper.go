package rules

import (
	"fmt"
	"strings"

	"gcode_inspector/internal/models"
)

// klipperVariant accepts start-macro metadata as temperature evidence.
// Klipper setups routinely run START_PRINT/PRINT_START macros that set
// and wait for temperatures inside the firmware, so missing standard
// mnemonics are not a failure when a start macro was detected.
type klipperVariant struct {
	baseVariant
	meta map[string]any
}

func (klipperVariant) kind() Kind { return KindKlipper }

func (v klipperVariant) macroTemp(key string) (float64, bool) {
	t, ok := v.meta[key].(float64)
	return t, ok && t > 0
}

func (v klipperVariant) startMacro() (string, bool) {
	m, ok := v.meta[models.MetaStartMacro].(string)
	return m, ok
}

func (v klipperVariant) checkNozzleTemp(in input) CheckResult {
	if temp, ok := v.macroTemp(models.MetaExtruderTemp); ok {
		macro, _ := v.startMacro()
		return CheckResult{
			Name:    CheckNozzleTempExists,
			Passed:  true,
			Message: fmt.Sprintf("nozzle temperature set by start macro (EXTRUDER=%g)", temp),
			Details: map[string]any{"source": "klipper_macro", "temp": temp, "macro": macro},
		}
	}

	if base := v.baseVariant.checkNozzleTemp(in); base.Passed {
		return base
	}

	if macro, ok := v.startMacro(); ok {
		return CheckResult{
			Name:    CheckNozzleTempExists,
			Passed:  true,
			Message: "nozzle temperature assumed set inside start macro",
			Details: map[string]any{"source": "klipper_macro_internal", "macro": macro},
		}
	}

	return CheckResult{
		Name:    CheckNozzleTempExists,
		Passed:  false,
		Message: "no nozzle temperature found (neither macro nor standard mnemonics)",
		Details: map[string]any{"count": 0},
	}
}

func (v klipperVariant) checkBedTemp(in input) CheckResult {
	if temp, ok := v.macroTemp(models.MetaBedTemp); ok {
		return CheckResult{
			Name:    CheckBedTempExists,
			Passed:  true,
			Message: fmt.Sprintf("bed temperature set by start macro (BED=%g)", temp),
			Details: map[string]any{"source": "klipper_macro", "temp": temp},
		}
	}

	if base := v.baseVariant.checkBedTemp(in); base.Passed {
		return base
	}

	if _, ok := v.startMacro(); ok {
		return CheckResult{
			Name:    CheckBedTempExists,
			Passed:  true,
			Message: "bed temperature assumed set inside start macro",
			Details: map[string]any{"source": "klipper_macro_internal"},
		}
	}

	return CheckResult{
		Name:    CheckBedTempExists,
		Passed:  false,
		Message: "no bed temperature set (printer may run without a heated bed)",
		Details: map[string]any{"count": 0},
	}
}

func (v klipperVariant) checkTempWait(in input) CheckResult {
	if macro, ok := v.startMacro(); ok {
		return CheckResult{
			Name:    CheckTempWaitBeforeExtrude,
			Passed:  true,
			Message: "temperature wait handled inside start macro",
			Details: map[string]any{"source": "klipper_macro", "macro": macro},
		}
	}
	return v.baseVariant.checkTempWait(in)
}

// criticalFlags drops the temperature-shaped flags when a start macro
// exists: setting a heater to zero right before START_PRINT and letting
// the macro reheat is a normal Klipper pattern.
func (v klipperVariant) criticalFlags(in input) []string {
	flags := v.baseVariant.criticalFlags(in)
	if _, ok := v.startMacro(); !ok {
		return flags
	}

	kept := flags[:0]
	for _, f := range flags {
		if strings.HasPrefix(f, FlagColdExtrusionZero) || strings.HasPrefix(f, FlagBodyTempZero) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

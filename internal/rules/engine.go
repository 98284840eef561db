package rules

import (
	"fmt"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/sections"
)

// input bundles the arguments every check receives.
type input struct {
	lines  []models.ParsedLine
	events []models.TempEvent
	bounds sections.Boundaries
}

// variant is the closed set of firmware-specific hook points. Base
// implements standard-mnemonic behavior; Klipper and Bambu override
// individual hooks.
type variant interface {
	kind() Kind
	checkNozzleTemp(in input) CheckResult
	checkBedTemp(in input) CheckResult
	checkTempWait(in input) CheckResult
	criticalFlags(in input) []string
}

// Engine runs the shared check pipeline through a firmware variant.
type Engine struct {
	v   variant
	ctx models.PrinterContext
}

// Kind reports which variant the engine dispatches to.
func (e *Engine) Kind() Kind {
	return e.v.kind()
}

// RunChecks executes the structural checks, extracts reporting data
// and collects critical flags. It never fails: a panic inside one
// check degrades only that check, and a panic during flag detection
// yields no flags.
func (e *Engine) RunChecks(lines []models.ParsedLine, events []models.TempEvent, bounds sections.Boundaries) Output {
	in := input{lines: lines, events: events, bounds: bounds}

	checks := []CheckResult{
		safeCheck(CheckNozzleTempExists, func() CheckResult { return e.v.checkNozzleTemp(in) }),
		safeCheck(CheckBedTempExists, func() CheckResult { return e.v.checkBedTemp(in) }),
		safeCheck(CheckTempWaitBeforeExtrude, func() CheckResult { return e.v.checkTempWait(in) }),
		safeCheck(CheckFeedRateExists, func() CheckResult { return checkFeedRate(in) }),
	}

	extracted := extractData(in)
	extracted.PrinterContext = e.ctx

	// A variant check that found temperature evidence outside the
	// standard events (macro parameters, vendor syntax) records it
	// under a "temp" detail; promote that into the summary.
	if detailTempFound(checks[0]) {
		extracted.HasNozzleTemp = true
	}
	if detailTempFound(checks[1]) {
		extracted.HasBedTemp = true
	}

	flags := safeFlags(func() []string { return e.v.criticalFlags(in) })

	out := Output{
		Checks:        checks,
		Extracted:     extracted,
		CriticalFlags: flags,
		EngineKind:    e.v.kind(),
	}
	out.QualityScore, out.QualityMessage = quality(checks, flags)
	return out
}

func detailTempFound(c CheckResult) bool {
	if !c.Passed {
		return false
	}
	_, ok := c.Details["temp"]
	return ok
}

// safeCheck converts a panic inside a check into a failed result for
// that check alone.
func safeCheck(name string, fn func() CheckResult) (res CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			res = CheckResult{
				Name:    name,
				Passed:  false,
				Message: fmt.Sprintf("check aborted internally: %v", r),
				Details: map[string]any{"internal_error": fmt.Sprint(r)},
			}
		}
	}()
	return fn()
}

func safeFlags(fn func() []string) (flags []string) {
	defer func() {
		if r := recover(); r != nil {
			flags = nil
		}
	}()
	return fn()
}

// checkFeedRate is shared by all variants: no firmware changes how
// feed rates are expressed.
func checkFeedRate(in input) CheckResult {
	var fValues []float64
	for _, line := range in.lines {
		if line.Command != "G0" && line.Command != "G1" {
			continue
		}
		if f, ok := line.Params["F"]; ok {
			fValues = append(fValues, f)
		}
	}

	if len(fValues) == 0 {
		return CheckResult{
			Name:    CheckFeedRateExists,
			Passed:  false,
			Message: "no feed rate (F) set anywhere in the file",
			Details: map[string]any{"count": 0},
		}
	}

	minF, maxF, sum := fValues[0], fValues[0], 0.0
	for _, f := range fValues {
		if f < minF {
			minF = f
		}
		if f > maxF {
			maxF = f
		}
		sum += f
	}
	return CheckResult{
		Name:    CheckFeedRateExists,
		Passed:  true,
		Message: "feed rate set",
		Details: map[string]any{
			"count": len(fValues),
			"min":   minF,
			"max":   maxF,
			"avg":   sum / float64(len(fValues)),
		},
	}
}

// quality derives the score and human-readable tier from the check
// outcomes. Pass ratio, minus 20 per critical flag, floored at zero.
func quality(checks []CheckResult, flags []string) (int, string) {
	if len(checks) == 0 {
		return 0, ""
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	score := passed * 100 / len(checks)
	score -= len(flags) * 20
	if score < 0 {
		score = 0
	}

	switch {
	case len(flags) > 0:
		return score, fmt.Sprintf("[WARNING] %d critical issue(s) found. Please review before printing!", len(flags))
	case score == 100:
		return score, "[PERFECT] All checks passed! Ready to print!"
	case score >= 75:
		return score, "[GOOD] Minor issues found, but printable."
	case score >= 50:
		return score, "[CAUTION] Some checks failed. Review settings before printing."
	default:
		return score, "[FAIL] Multiple checks failed. Please review slicer settings."
	}
}

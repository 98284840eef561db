package rules

import (
	"strings"
	"testing"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/parser"
	"gcode_inspector/internal/sections"
)

func checkByName(t *testing.T, out Output, name string) CheckResult {
	t.Helper()
	for _, c := range out.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q missing from output", name)
	return CheckResult{}
}

// wellFormedDoc preheats, waits, prints and shuts down cleanly.
func wellFormedDoc() ([]models.ParsedLine, []models.TempEvent, sections.Boundaries) {
	lines := parser.ParseString(strings.Join([]string{
		"M140 S60",
		"M190 S60",
		"M104 S210",
		"M109 S210",
		"G28",
		"G1 Z0.2 F300",
		"G1 X10 Y10 E1 F1800",
		"G1 X20 Y20 E2",
		"M104 S0",
		"M140 S0",
	}, "\n"))
	events := parser.ExtractTempEvents(lines)
	bounds := sections.Boundaries{StartEnd: 6, BodyEnd: 8, TotalLines: 10}
	return lines, events, bounds
}

func TestForContext_Selection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  models.PrinterContext
		want Kind
	}{
		{
			name: "empty context falls back to base",
			ctx:  models.PrinterContext{},
			want: KindBase,
		},
		{
			name: "klipper firmware",
			ctx:  models.PrinterContext{Firmware: models.FirmwareKlipper},
			want: KindKlipper,
		},
		{
			name: "bambu equipment wins over klipper firmware",
			ctx: models.PrinterContext{
				Equipment: models.EquipmentBambuLab,
				Firmware:  models.FirmwareKlipper,
			},
			want: KindBambu,
		},
		{
			name: "bambustudio slicer alone selects bambu",
			ctx:  models.PrinterContext{Slicer: models.SlicerBambuStudio},
			want: KindBambu,
		},
		{
			name: "marlin firmware has no dedicated variant",
			ctx:  models.PrinterContext{Firmware: models.FirmwareMarlin},
			want: KindBase,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KindForContext(tc.ctx); got != tc.want {
				t.Fatalf("KindForContext = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEngine_RunChecks_WellFormed(t *testing.T) {
	t.Parallel()

	lines, events, bounds := wellFormedDoc()
	out := ForContext(models.PrinterContext{}).RunChecks(lines, events, bounds)

	if out.EngineKind != KindBase {
		t.Fatalf("engine kind = %s, want base", out.EngineKind)
	}
	if len(out.Checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(out.Checks))
	}
	for _, c := range out.Checks {
		if !c.Passed {
			t.Fatalf("check %s failed: %s", c.Name, c.Message)
		}
	}
	if len(out.CriticalFlags) != 0 {
		t.Fatalf("unexpected critical flags: %v", out.CriticalFlags)
	}
	if out.QualityScore != 100 {
		t.Fatalf("quality = %d, want 100", out.QualityScore)
	}
	if !strings.HasPrefix(out.QualityMessage, "[PERFECT]") {
		t.Fatalf("quality message = %q", out.QualityMessage)
	}
	if !out.Extracted.HasNozzleTemp || !out.Extracted.HasBedTemp {
		t.Fatalf("extracted temp summary wrong: %+v", out.Extracted)
	}
}

func TestEngine_RunChecks_MissingTemps(t *testing.T) {
	t.Parallel()

	lines := parser.ParseString("G28\nG1 Z0.2\nG1 X10 E1 F1200")
	events := parser.ExtractTempEvents(lines)
	bounds := sections.Boundaries{StartEnd: 2, BodyEnd: 3, TotalLines: 3}

	out := ForContext(models.PrinterContext{}).RunChecks(lines, events, bounds)

	if c := checkByName(t, out, CheckNozzleTempExists); c.Passed {
		t.Fatalf("nozzle check passed without any temperature")
	}
	if c := checkByName(t, out, CheckBedTempExists); c.Passed {
		t.Fatalf("bed check passed without any temperature")
	}
	if c := checkByName(t, out, CheckTempWaitBeforeExtrude); c.Passed {
		t.Fatalf("wait check passed without M109")
	}
	if out.QualityScore >= 50 {
		t.Fatalf("quality = %d for a file missing everything", out.QualityScore)
	}
}

func Test_criticalFlags_base(t *testing.T) {
	t.Parallel()

	t.Run("body temp zero flagged", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString(strings.Join([]string{
			"M104 S210",
			"M109 S210",
			"G1 X10 E1 F1200",
			"M104 S0",
			"G1 X20",
			"M104 S0",
		}, "\n"))
		events := parser.ExtractTempEvents(lines)
		bounds := sections.Boundaries{StartEnd: 2, BodyEnd: 5, TotalLines: 6}

		out := ForContext(models.PrinterContext{}).RunChecks(lines, events, bounds)
		if len(out.CriticalFlags) != 1 {
			t.Fatalf("flags = %v, want one body-temp-zero flag", out.CriticalFlags)
		}
		if !strings.HasPrefix(out.CriticalFlags[0], FlagBodyTempZero) {
			t.Fatalf("flag = %q, want %s prefix", out.CriticalFlags[0], FlagBodyTempZero)
		}
		if !strings.HasSuffix(out.CriticalFlags[0], "line_4") {
			t.Fatalf("flag = %q, want line_4 suffix", out.CriticalFlags[0])
		}
	})

	t.Run("aux nozzle marker suppresses the flag", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString(strings.Join([]string{
			"M104 S210",
			"M109 S210",
			"G1 X10 E1 F1200",
			"M104 S0 H2",
			"G1 X20 E2",
		}, "\n"))
		events := parser.ExtractTempEvents(lines)
		bounds := sections.Boundaries{StartEnd: 2, BodyEnd: 5, TotalLines: 5}

		out := ForContext(models.PrinterContext{}).RunChecks(lines, events, bounds)
		for _, f := range out.CriticalFlags {
			if strings.HasPrefix(f, FlagBodyTempZero) {
				t.Fatalf("aux-marker line still flagged: %v", out.CriticalFlags)
			}
		}
	})

	t.Run("extrusion at zero set temperature", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString(strings.Join([]string{
			"G28",
			"G1 Z0.2",
			"G1 X10 E1 F1200",
			"G1 X20 E2",
		}, "\n"))
		events := parser.ExtractTempEvents(lines)
		bounds := sections.Boundaries{StartEnd: 2, BodyEnd: 4, TotalLines: 4}

		out := ForContext(models.PrinterContext{}).RunChecks(lines, events, bounds)
		if len(out.CriticalFlags) != 1 {
			t.Fatalf("flags = %v, want one cold-extrusion flag", out.CriticalFlags)
		}
		if !strings.HasPrefix(out.CriticalFlags[0], FlagColdExtrusionZero) {
			t.Fatalf("flag = %q, want %s prefix", out.CriticalFlags[0], FlagColdExtrusionZero)
		}
	})
}

func Test_klipperVariant(t *testing.T) {
	t.Parallel()

	macroLine := "START_PRINT EXTRUDER=245 BED=85"
	ctx := models.PrinterContext{
		Firmware: models.FirmwareKlipper,
		Metadata: map[string]any{
			models.MetaStartMacro:   macroLine,
			models.MetaExtruderTemp: 245.0,
			models.MetaBedTemp:      85.0,
		},
	}

	lines := parser.ParseString(strings.Join([]string{
		macroLine,
		"G1 Z0.2 F300",
		"G1 X10 E1 F1800",
		"G1 X20 E2",
	}, "\n"))
	events := parser.ExtractTempEvents(lines)
	bounds := sections.Boundaries{StartEnd: 1, BodyEnd: 4, TotalLines: 4}

	out := ForContext(ctx).RunChecks(lines, events, bounds)
	if out.EngineKind != KindKlipper {
		t.Fatalf("engine kind = %s, want klipper", out.EngineKind)
	}

	nozzle := checkByName(t, out, CheckNozzleTempExists)
	if !nozzle.Passed || nozzle.Details["source"] != "klipper_macro" {
		t.Fatalf("nozzle check = %+v, want klipper_macro pass", nozzle)
	}
	if !out.Extracted.HasNozzleTemp || !out.Extracted.HasBedTemp {
		t.Fatalf("macro temperatures not promoted into the summary: %+v", out.Extracted)
	}
	if wait := checkByName(t, out, CheckTempWaitBeforeExtrude); !wait.Passed {
		t.Fatalf("wait check failed despite start macro: %+v", wait)
	}
	if len(out.CriticalFlags) != 0 {
		t.Fatalf("flags = %v, want none with a start macro present", out.CriticalFlags)
	}
}

func Test_klipperVariant_noMacroFallsBack(t *testing.T) {
	t.Parallel()

	ctx := models.PrinterContext{Firmware: models.FirmwareKlipper}
	lines := parser.ParseString("M104 S210\nM109 S210\nG1 X10 E1 F1200")
	events := parser.ExtractTempEvents(lines)
	bounds := sections.Boundaries{StartEnd: 2, BodyEnd: 3, TotalLines: 3}

	out := ForContext(ctx).RunChecks(lines, events, bounds)
	nozzle := checkByName(t, out, CheckNozzleTempExists)
	if !nozzle.Passed {
		t.Fatalf("standard mnemonics should satisfy the klipper variant: %+v", nozzle)
	}
}

func Test_bambuVariant(t *testing.T) {
	t.Parallel()

	ctx := models.PrinterContext{
		Equipment:      models.EquipmentBambuLab,
		EquipmentModel: "X1C",
	}

	t.Run("G9111 temperatures accepted", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString(strings.Join([]string{
			"G9111 bedTemp=55 extruderTemp=220",
			"G1 Z0.2 F300",
			"G1 X10 E1 F1800",
		}, "\n"))
		events := parser.ExtractTempEvents(lines)
		bounds := sections.Boundaries{StartEnd: 1, BodyEnd: 3, TotalLines: 3}

		out := ForContext(ctx).RunChecks(lines, events, bounds)
		if out.EngineKind != KindBambu {
			t.Fatalf("engine kind = %s, want bambu", out.EngineKind)
		}
		nozzle := checkByName(t, out, CheckNozzleTempExists)
		if !nozzle.Passed || nozzle.Details["source"] != "G9111" {
			t.Fatalf("nozzle check = %+v, want G9111 pass", nozzle)
		}
		bed := checkByName(t, out, CheckBedTempExists)
		if !bed.Passed || bed.Details["source"] != "G9111" {
			t.Fatalf("bed check = %+v, want G9111 pass", bed)
		}
		if wait := checkByName(t, out, CheckTempWaitBeforeExtrude); !wait.Passed {
			t.Fatalf("wait check failed despite G9111 temperatures: %+v", wait)
		}
	})

	t.Run("X1 series without G9111 flags the missing block", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString(strings.Join([]string{
			"M104 S220",
			"G1 Z0.2 F300",
			"G1 X10 E1 F1800",
		}, "\n"))
		events := parser.ExtractTempEvents(lines)
		bounds := sections.Boundaries{StartEnd: 1, BodyEnd: 3, TotalLines: 3}

		out := ForContext(ctx).RunChecks(lines, events, bounds)
		wait := checkByName(t, out, CheckTempWaitBeforeExtrude)
		if wait.Passed {
			t.Fatalf("wait check passed without M109 or G9111: %+v", wait)
		}
		if wait.Details["expected_g9111"] != true {
			t.Fatalf("missing X1-series detail: %+v", wait)
		}
		if !strings.Contains(wait.Message, "G9111") {
			t.Fatalf("message does not mention the missing block: %q", wait.Message)
		}
	})

	t.Run("non-X1 model falls back without the G9111 note", func(t *testing.T) {
		t.Parallel()
		plainCtx := models.PrinterContext{
			Equipment:      models.EquipmentBambuLab,
			EquipmentModel: "P1S",
		}
		lines := parser.ParseString("M104 S220\nG1 X10 E1 F1800")
		events := parser.ExtractTempEvents(lines)
		bounds := sections.Boundaries{StartEnd: 1, BodyEnd: 2, TotalLines: 2}

		out := ForContext(plainCtx).RunChecks(lines, events, bounds)
		wait := checkByName(t, out, CheckTempWaitBeforeExtrude)
		if wait.Passed {
			t.Fatalf("wait check passed without M109: %+v", wait)
		}
		if _, ok := wait.Details["expected_g9111"]; ok {
			t.Fatalf("X1-series detail set for a non-X1 model: %+v", wait)
		}
	})

	t.Run("standard events preferred over G9111", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString(strings.Join([]string{
			"M104 S220",
			"G9111 extruderTemp=220",
			"G1 X10 E1 F1800",
		}, "\n"))
		events := parser.ExtractTempEvents(lines)
		bounds := sections.Boundaries{StartEnd: 1, BodyEnd: 3, TotalLines: 3}

		out := ForContext(ctx).RunChecks(lines, events, bounds)
		nozzle := checkByName(t, out, CheckNozzleTempExists)
		if !nozzle.Passed || nozzle.Details["source"] != "standard" {
			t.Fatalf("nozzle check = %+v, want standard-source pass", nozzle)
		}
	})
}

func Test_quality(t *testing.T) {
	t.Parallel()

	pass := CheckResult{Passed: true}
	fail := CheckResult{}

	tests := []struct {
		name       string
		checks     []CheckResult
		flags      []string
		wantScore  int
		wantPrefix string
	}{
		{
			name:       "all pass",
			checks:     []CheckResult{pass, pass, pass, pass},
			wantScore:  100,
			wantPrefix: "[PERFECT]",
		},
		{
			name:       "three of four",
			checks:     []CheckResult{pass, pass, pass, fail},
			wantScore:  75,
			wantPrefix: "[GOOD]",
		},
		{
			name:       "half",
			checks:     []CheckResult{pass, pass, fail, fail},
			wantScore:  50,
			wantPrefix: "[CAUTION]",
		},
		{
			name:       "flags penalize and dominate the message",
			checks:     []CheckResult{pass, pass, pass, pass},
			flags:      []string{"BODY_TEMP_ZERO:line_10"},
			wantScore:  80,
			wantPrefix: "[WARNING]",
		},
		{
			name:       "score floors at zero",
			checks:     []CheckResult{fail, fail, fail, fail},
			flags:      []string{"a", "b"},
			wantScore:  0,
			wantPrefix: "[WARNING]",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			score, msg := quality(tc.checks, tc.flags)
			if score != tc.wantScore {
				t.Fatalf("score = %d, want %d", score, tc.wantScore)
			}
			if !strings.HasPrefix(msg, tc.wantPrefix) {
				t.Fatalf("message = %q, want %s prefix", msg, tc.wantPrefix)
			}
		})
	}
}

func Test_safeCheck_recoversPanic(t *testing.T) {
	t.Parallel()

	res := safeCheck("boom", func() CheckResult {
		panic("internal inconsistency")
	})
	if res.Passed {
		t.Fatal("panicking check reported as passed")
	}
	if res.Name != "boom" {
		t.Fatalf("name = %q, want boom", res.Name)
	}
	if res.Details["internal_error"] != "internal inconsistency" {
		t.Fatalf("details = %v", res.Details)
	}
}

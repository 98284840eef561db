package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"gcode_inspector/internal/config"
	"gcode_inspector/internal/logger"
	"gcode_inspector/internal/models"
	"gcode_inspector/internal/profile"
	"gcode_inspector/internal/rules"
)

func newTestService() *Service {
	return NewService(config.Default(), profile.NewStore(), logger.Nop())
}

// A realistic short print: klipper-free standard mnemonics, one body
// defect (heater off with printing remaining).
const defectiveDoc = `; generated by PrusaSlicer 2.7.0
M140 S60
M190 S60
M104 S210
M109 S210
G28
;LAYER:0
G1 Z0.2 F300
G1 X10 Y10 E1 F1800
M104 S0
G1 X20 Y20 E2
G1 X30 Y30 E3
M140 S0
M84
; end of print
`

func TestService_Analyze(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Source: strings.NewReader(defectiveDoc),
		Name:   "defective.gcode",
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if report.ReportID == "" {
		t.Fatal("report has no ID")
	}
	if report.GeneratedAt.IsZero() || time.Since(report.GeneratedAt) > time.Minute {
		t.Fatalf("GeneratedAt = %v", report.GeneratedAt)
	}
	if report.FileName != "defective.gcode" {
		t.Fatalf("FileName = %q", report.FileName)
	}
	if report.TotalLines != 15 {
		t.Fatalf("TotalLines = %d, want 15", report.TotalLines)
	}
	if report.Context.Slicer != models.SlicerPrusa {
		t.Fatalf("slicer = %s, want prusaslicer", report.Context.Slicer)
	}

	b := report.Boundaries
	if b.StartEnd < 0 || b.StartEnd > b.BodyEnd || b.BodyEnd > b.TotalLines {
		t.Fatalf("boundary invariant violated: %+v", b)
	}

	// The heater-off at line 10 with extrusion after it must surface.
	found := false
	for _, a := range report.Anomalies {
		if a.Type == models.AnomalyEarlyTempOff && a.LineIndex == 10 {
			found = true
		}
	}
	if !found {
		t.Fatalf("early heater-off not reported: %+v", report.Anomalies)
	}
	if snip, ok := report.Snippets[10]; !ok || !strings.Contains(snip, "10: M104 S0") {
		t.Fatalf("snippet for line 10 missing or wrong: %q", snip)
	}

	for i := 1; i < len(report.Anomalies); i++ {
		if report.Anomalies[i-1].LineIndex > report.Anomalies[i].LineIndex {
			t.Fatalf("anomalies not sorted: %+v", report.Anomalies)
		}
	}
}

func TestService_Analyze_ContextOverride(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	override := &models.PrinterContext{Firmware: models.FirmwareKlipper}

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Source:  strings.NewReader(defectiveDoc),
		Name:    "x.gcode",
		Context: override,
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if report.Rules.EngineKind != rules.KindKlipper {
		t.Fatalf("engine kind = %s, want klipper via the override", report.Rules.EngineKind)
	}
}

func TestService_Analyze_Errors(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	t.Run("nil source", func(t *testing.T) {
		t.Parallel()
		if _, err := svc.Analyze(context.Background(), AnalyzeRequest{Name: "x"}); err == nil {
			t.Fatal("expected an error for a nil source")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Analyze(ctx, AnalyzeRequest{Source: strings.NewReader("G28"), Name: "x"})
		if err == nil {
			t.Fatal("expected an error for a canceled context")
		}
	})
}

func TestService_Sections(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	report, err := svc.Sections(context.Background(), strings.NewReader(defectiveDoc))
	if err != nil {
		t.Fatalf("Sections returned error: %v", err)
	}
	if report.TotalLines != 15 {
		t.Fatalf("TotalLines = %d, want 15", report.TotalLines)
	}
	if !strings.Contains(report.Summary, "Boundaries(") {
		t.Fatalf("summary = %q", report.Summary)
	}
}

func TestService_Patch(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	t.Run("merge with provenance header", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		report, err := svc.Patch(context.Background(), PatchRequest{
			Source: strings.NewReader("G28\nM104 S0\nG1 X10 E1"),
			Output: &out,
			Deltas: []models.LineDelta{
				{LineIndex: 1, Action: models.DeltaDelete},
			},
			OriginalName: "fix.gcode",
			WithHeader:   true,
		})
		if err != nil {
			t.Fatalf("Patch returned error: %v", err)
		}
		if report.Merge.AppliedDeltas != 1 || report.Merge.TotalLines != 3 {
			t.Fatalf("merge result = %+v", report.Merge)
		}
		text := out.String()
		if !strings.HasPrefix(text, "; ====") {
			t.Fatalf("provenance header missing:\n%s", text)
		}
		if strings.Contains(text, "M104 S0") {
			t.Fatalf("deleted line still present:\n%s", text)
		}
	})

	t.Run("malformed deltas degrade to warnings", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		report, err := svc.Patch(context.Background(), PatchRequest{
			Source:      strings.NewReader("G28\nG1 X10"),
			Output:      &out,
			Deltas:      []models.LineDelta{{LineIndex: 99, Action: models.DeltaDelete}},
			SourceLines: 2,
		})
		if err != nil {
			t.Fatalf("Patch returned error: %v", err)
		}
		if len(report.ValidationWarnings) != 1 {
			t.Fatalf("validation warnings = %v", report.ValidationWarnings)
		}
		if report.Merge.SkippedDeltas != 1 {
			t.Fatalf("merge result = %+v", report.Merge)
		}
	})

	t.Run("nil output is a hard error", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Patch(context.Background(), PatchRequest{
			Source: strings.NewReader("G28"),
		})
		if err == nil {
			t.Fatal("expected an error for a nil output")
		}
	})
}

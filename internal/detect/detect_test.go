package detect

import (
	"strings"
	"testing"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/parser"
)

func TestSlicer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		doc         string
		want        models.Slicer
		wantVersion string
	}{
		{
			name:        "orca with version",
			doc:         "; generated by OrcaSlicer 2.1.1 on 2024-01-01\nM104 S210",
			want:        models.SlicerOrca,
			wantVersion: "2.1.1",
		},
		{
			name: "bambu studio",
			doc:  "; BambuStudio 1.8.4\nM104 S210",
			want: models.SlicerBambuStudio,
		},
		{
			name: "cura flavor marker",
			doc:  ";FLAVOR:Marlin\n;TIME:3600",
			want: models.SlicerCura,
		},
		{
			name:        "prusaslicer",
			doc:         "; generated by PrusaSlicer 2.7.0 on 2024-01-01",
			want:        models.SlicerPrusa,
			wantVersion: "2.7.0",
		},
		{
			name: "no header",
			doc:  "G28\nG1 X10 E1",
			want: models.SlicerUnknown,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, version := Slicer(parser.ParseString(tc.doc))
			if got != tc.want {
				t.Fatalf("Slicer = %s, want %s", got, tc.want)
			}
			if tc.wantVersion != "" && version != tc.wantVersion {
				t.Fatalf("version = %q, want %q", version, tc.wantVersion)
			}
		})
	}
}

func TestFirmware(t *testing.T) {
	t.Parallel()

	t.Run("klipper start macro with temperatures", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString("START_PRINT EXTRUDER=245 BED=85\nG1 X10 E1")

		fw, meta := Firmware(lines)
		if fw != models.FirmwareKlipper {
			t.Fatalf("firmware = %s, want klipper", fw)
		}
		if got, _ := meta[models.MetaExtruderTemp].(float64); got != 245 {
			t.Fatalf("extruder temp = %v, want 245", meta[models.MetaExtruderTemp])
		}
		if got, _ := meta[models.MetaBedTemp].(float64); got != 85 {
			t.Fatalf("bed temp = %v, want 85", meta[models.MetaBedTemp])
		}
		macro, _ := meta[models.MetaStartMacro].(string)
		if !strings.Contains(macro, "START_PRINT") {
			t.Fatalf("start macro not captured: %q", macro)
		}
	})

	t.Run("single macro hit is enough", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString("G28\nSET_PRESSURE_ADVANCE ADVANCE=0.04\nM104 S210")

		fw, meta := Firmware(lines)
		if fw != models.FirmwareKlipper {
			t.Fatalf("firmware = %s, want klipper", fw)
		}
		evidence, _ := meta[models.MetaDetectedMacros].([]string)
		if len(evidence) != 1 {
			t.Fatalf("evidence = %v, want one entry", evidence)
		}
	})

	t.Run("reprap short-circuits", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString("; generated by RepRapFirmware\nG28")

		fw, meta := Firmware(lines)
		if fw != models.FirmwareRepRap {
			t.Fatalf("firmware = %s, want reprapfirmware", fw)
		}
		if meta != nil {
			t.Fatalf("expected nil metadata, got %v", meta)
		}
	})

	t.Run("standard mnemonics read as marlin", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString("M104 S210\nM140 S60\nG28")

		fw, _ := Firmware(lines)
		if fw != models.FirmwareMarlin {
			t.Fatalf("firmware = %s, want marlin", fw)
		}
	})

	t.Run("nothing recognizable stays unknown", func(t *testing.T) {
		t.Parallel()
		lines := parser.ParseString("G1 X10 Y10\nG1 X20 Y20")

		fw, _ := Firmware(lines)
		if fw != models.FirmwareUnknown {
			t.Fatalf("firmware = %s, want unknown", fw)
		}
	})
}

func TestEquipment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		doc       string
		want      models.Equipment
		wantModel string
	}{
		{
			name:      "bambu via printer_model header",
			doc:       "; printer_model: X1C\nM104 S210",
			want:      models.EquipmentBambuLab,
			wantModel: "X1C",
		},
		{
			name: "bambu via G9111",
			doc:  "G9111 bedTemp=55 extruderTemp=220",
			want: models.EquipmentBambuLab,
		},
		{
			name: "creality ender",
			doc:  "; Ender-3 V2 profile",
			want: models.EquipmentCreality,
		},
		{
			name: "voron",
			doc:  "; Voron 2.4 350mm",
			want: models.EquipmentVoron,
		},
		{
			name: "unknown",
			doc:  "G28\nG1 X10",
			want: models.EquipmentUnknown,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, model := Equipment(parser.ParseString(tc.doc))
			if got != tc.want {
				t.Fatalf("Equipment = %s, want %s", got, tc.want)
			}
			if model != tc.wantModel {
				t.Fatalf("model = %q, want %q", model, tc.wantModel)
			}
		})
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	doc := strings.Join([]string{
		"; generated by OrcaSlicer 2.1.1",
		"; printer_model: X1C",
		"START_PRINT EXTRUDER=220 BED=55",
		"G1 X10 E1",
	}, "\n")

	ctx := Context(parser.ParseString(doc))
	if ctx.Slicer != models.SlicerOrca {
		t.Fatalf("slicer = %s, want orcaslicer", ctx.Slicer)
	}
	if ctx.Firmware != models.FirmwareKlipper {
		t.Fatalf("firmware = %s, want klipper", ctx.Firmware)
	}
	if ctx.Equipment != models.EquipmentBambuLab {
		t.Fatalf("equipment = %s, want bambulab", ctx.Equipment)
	}
	if ctx.EquipmentModel != "X1C" {
		t.Fatalf("model = %q, want X1C", ctx.EquipmentModel)
	}
}

// Package detect identifies the printing environment (slicer, firmware,
// equipment) from marker comments and vendor-specific commands in the
// head of a G-code file. The resulting PrinterContext selects which
// rule-engine variant interprets the file; the context is read-only to
// the rest of the pipeline.
package detect

import (
	"regexp"
	"strconv"
	"strings"

	"gcode_inspector/internal/models"
)

// Scan windows: slicers identify themselves in the first lines of the
// header; firmware and equipment evidence can sit a bit deeper.
const (
	slicerScanLines    = 100
	firmwareScanLines  = 200
	equipmentScanLines = 200
	maxMacroEvidence   = 5
)

type slicerPattern struct {
	slicer  models.Slicer
	pattern *regexp.Regexp
}

// Version capture group, where present, yields SlicerVersion.
var slicerPatterns = []slicerPattern{
	{models.SlicerOrca, regexp.MustCompile(`(?i)generated by OrcaSlicer\s*([\d.]+)?`)},
	{models.SlicerOrca, regexp.MustCompile(`(?i); OrcaSlicer`)},
	{models.SlicerBambuStudio, regexp.MustCompile(`(?i)BambuStudio\s*([\d.]+)?`)},
	{models.SlicerBambuStudio, regexp.MustCompile(`(?i); Bambu Lab`)},
	{models.SlicerCura, regexp.MustCompile(`(?i)Generated with Cura_SteamEngine\s*([\d.]+)?`)},
	{models.SlicerCura, regexp.MustCompile(`(?i);FLAVOR:Marlin`)},
	{models.SlicerCura, regexp.MustCompile(`(?i)Ultimaker Cura`)},
	{models.SlicerPrusa, regexp.MustCompile(`(?i)generated by PrusaSlicer\s*([\d.]+)?`)},
	{models.SlicerPrusa, regexp.MustCompile(`(?i); PrusaSlicer`)},
	{models.SlicerSimplify3D, regexp.MustCompile(`(?i)Simplify3D`)},
	{models.SlicerIdeaMaker, regexp.MustCompile(`(?i)ideaMaker`)},
}

// Klipper macro vocabulary. One hit is enough evidence: stock Marlin
// files never carry these.
var klipperPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bSTART_PRINT\b`),
	regexp.MustCompile(`(?i)\bPRINT_START\b`),
	regexp.MustCompile(`(?i)\bEND_PRINT\b`),
	regexp.MustCompile(`(?i)\bPRINT_END\b`),
	regexp.MustCompile(`(?i)\bSET_PRESSURE_ADVANCE\b`),
	regexp.MustCompile(`(?i)\bSET_VELOCITY_LIMIT\b`),
	regexp.MustCompile(`(?i)\bSET_RETRACTION\b`),
	regexp.MustCompile(`(?i)\bSET_GCODE_OFFSET\b`),
	regexp.MustCompile(`(?i)\bBED_MESH_CALIBRATE\b`),
	regexp.MustCompile(`(?i)\bBED_MESH_PROFILE\b`),
	regexp.MustCompile(`(?i)\bQUAD_GANTRY_LEVEL\b`),
	regexp.MustCompile(`(?i)\bZ_TILT_ADJUST\b`),
	regexp.MustCompile(`\bG32\b`),
	regexp.MustCompile(`(?i)\bRESPOND\b`),
	regexp.MustCompile(`(?i)\bEXCLUDE_OBJECT\b`),
	regexp.MustCompile(`(?i)\bSET_HEATER_TEMPERATURE\b`),
	regexp.MustCompile(`(?i)\bTURN_OFF_HEATERS\b`),
}

var reprapPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i); generated by RepRapFirmware`),
	regexp.MustCompile(`(?i)M98\s+P.*\.g`),
	regexp.MustCompile(`(?i)M929`),
}

var smoothiePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i); generated by Smoothieware`),
	regexp.MustCompile(`(?i)M500\s+; save`),
}

var (
	macroExtruderTemp = regexp.MustCompile(`(?i)(?:EXTRUDER(?:_TEMP)?)\s*=\s*(\d+(?:\.\d+)?)`)
	macroBedTemp      = regexp.MustCompile(`(?i)(?:BED(?:_TEMP)?)\s*=\s*(\d+(?:\.\d+)?)`)
	printerModel      = regexp.MustCompile(`(?i)printer_model\s*[:=]\s*(\S+)`)
)

type equipmentPattern struct {
	equipment models.Equipment
	pattern   *regexp.Regexp
}

var equipmentPatterns = []equipmentPattern{
	{models.EquipmentBambuLab, regexp.MustCompile(`(?i)Bambu\s*Lab`)},
	{models.EquipmentBambuLab, regexp.MustCompile(`(?i); printer_model\s*[:=]\s*(?:X1|P1|A1)`)},
	{models.EquipmentBambuLab, regexp.MustCompile(`(?i)BambuStudio`)},
	{models.EquipmentBambuLab, regexp.MustCompile(`(?i)G9111\s+.*(?:bedTemp|extruderTemp)\s*=`)},
	{models.EquipmentBambuLab, regexp.MustCompile(`(?i)M10[49]\s+S\d+\s+H[1-9]`)},
	{models.EquipmentCreality, regexp.MustCompile(`(?i)Creality`)},
	{models.EquipmentCreality, regexp.MustCompile(`(?i)\bEnder[\s-]?\d`)},
	{models.EquipmentCreality, regexp.MustCompile(`(?i)\bCR-\d{1,2}\b`)},
	{models.EquipmentPrusa, regexp.MustCompile(`(?i)Prusa(?:Slicer)?`)},
	{models.EquipmentPrusa, regexp.MustCompile(`(?i); printer_model\s*[:=]\s*(?:MK|Mini|XL)`)},
	{models.EquipmentVoron, regexp.MustCompile(`(?i)\bVoron\b`)},
	{models.EquipmentVoron, regexp.MustCompile(`(?i)\bTrident\b`)},
	{models.EquipmentRatRig, regexp.MustCompile(`(?i)RatRig`)},
	{models.EquipmentRatRig, regexp.MustCompile(`(?i)V-Core`)},
	{models.EquipmentElegoo, regexp.MustCompile(`(?i)Elegoo`)},
	{models.EquipmentElegoo, regexp.MustCompile(`(?i)Neptune`)},
	{models.EquipmentAnycubic, regexp.MustCompile(`(?i)Anycubic`)},
	{models.EquipmentAnycubic, regexp.MustCompile(`(?i)Kobra`)},
	{models.EquipmentArtillery, regexp.MustCompile(`(?i)Artillery`)},
	{models.EquipmentArtillery, regexp.MustCompile(`(?i)Sidewinder`)},
	{models.EquipmentSovol, regexp.MustCompile(`(?i)Sovol`)},
	{models.EquipmentSovol, regexp.MustCompile(`(?i)SV0[1-9]`)},
}

// Context runs all three detectors over the file head and assembles a
// PrinterContext.
func Context(lines []models.ParsedLine) models.PrinterContext {
	ctx := models.PrinterContext{
		Slicer:    models.SlicerUnknown,
		Firmware:  models.FirmwareUnknown,
		Equipment: models.EquipmentUnknown,
	}

	ctx.Slicer, ctx.SlicerVersion = Slicer(lines)
	ctx.Firmware, ctx.Metadata = Firmware(lines)
	ctx.Equipment, ctx.EquipmentModel = Equipment(lines)
	return ctx
}

// Slicer identifies the slicing software from the file header.
func Slicer(lines []models.ParsedLine) (models.Slicer, string) {
	for _, line := range head(lines, slicerScanLines) {
		for _, sp := range slicerPatterns {
			m := sp.pattern.FindStringSubmatch(line.Raw)
			if m == nil {
				continue
			}
			version := ""
			if len(m) > 1 {
				version = m[1]
			}
			return sp.slicer, version
		}
	}
	return models.SlicerUnknown, ""
}

// Firmware identifies the target firmware. For Klipper it also
// extracts start-macro metadata (macro line and EXTRUDER=/BED=
// temperatures) into the returned map.
func Firmware(lines []models.ParsedLine) (models.Firmware, map[string]any) {
	var evidence []string
	meta := map[string]any{}

	for _, line := range head(lines, firmwareScanLines) {
		raw := line.Raw

		for _, p := range klipperPatterns {
			if !p.MatchString(raw) {
				continue
			}
			evidence = append(evidence, strings.TrimSpace(raw))

			upper := strings.ToUpper(raw)
			if strings.Contains(upper, "START_PRINT") || strings.Contains(upper, "PRINT_START") {
				if m := macroExtruderTemp.FindStringSubmatch(raw); m != nil {
					meta[models.MetaExtruderTemp] = parseTemp(m[1])
				}
				if m := macroBedTemp.FindStringSubmatch(raw); m != nil {
					meta[models.MetaBedTemp] = parseTemp(m[1])
				}
				meta[models.MetaStartMacro] = strings.TrimSpace(raw)
			}
			break
		}

		for _, p := range reprapPatterns {
			if p.MatchString(raw) {
				return models.FirmwareRepRap, nil
			}
		}
		for _, p := range smoothiePatterns {
			if p.MatchString(raw) {
				return models.FirmwareSmoothie, nil
			}
		}
	}

	if len(evidence) > 0 {
		if len(evidence) > maxMacroEvidence {
			evidence = evidence[:maxMacroEvidence]
		}
		meta[models.MetaDetectedMacros] = evidence
		return models.FirmwareKlipper, meta
	}

	// Plain standard mnemonics with no macro vocabulary reads as Marlin.
	for _, line := range head(lines, firmwareScanLines) {
		switch line.Command {
		case "G28", "G29", "M104", "M109", "M140", "M190":
			return models.FirmwareMarlin, nil
		}
	}
	return models.FirmwareUnknown, nil
}

// Equipment identifies the printer brand and, when the header carries a
// printer_model field, the concrete model.
func Equipment(lines []models.ParsedLine) (models.Equipment, string) {
	for _, line := range head(lines, equipmentScanLines) {
		for _, ep := range equipmentPatterns {
			if !ep.pattern.MatchString(line.Raw) {
				continue
			}
			model := ""
			if m := printerModel.FindStringSubmatch(line.Raw); m != nil {
				model = m[1]
			}
			return ep.equipment, model
		}
	}
	return models.EquipmentUnknown, ""
}

func head(lines []models.ParsedLine, n int) []models.ParsedLine {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func parseTemp(s string) float64 {
	// The capture group only admits digits and dots; a parse failure
	// leaves zero, which downstream treats as "not set".
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

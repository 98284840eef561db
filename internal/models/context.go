package models

// Slicer identifies the slicing software that produced the file.
type Slicer string

const (
	SlicerUnknown     Slicer = "unknown"
	SlicerOrca        Slicer = "orcaslicer"
	SlicerBambuStudio Slicer = "bambustudio"
	SlicerCura        Slicer = "cura"
	SlicerPrusa       Slicer = "prusaslicer"
	SlicerSimplify3D  Slicer = "simplify3d"
	SlicerIdeaMaker   Slicer = "ideamaker"
)

// Firmware identifies the motion-control firmware the file targets.
type Firmware string

const (
	FirmwareUnknown  Firmware = "unknown"
	FirmwareKlipper  Firmware = "klipper"
	FirmwareMarlin   Firmware = "marlin"
	FirmwareRepRap   Firmware = "reprapfirmware"
	FirmwareSmoothie Firmware = "smoothieware"
)

// Equipment identifies the printer brand/family.
type Equipment string

const (
	EquipmentUnknown   Equipment = "unknown"
	EquipmentBambuLab  Equipment = "bambulab"
	EquipmentCreality  Equipment = "creality"
	EquipmentPrusa     Equipment = "prusa"
	EquipmentVoron     Equipment = "voron"
	EquipmentRatRig    Equipment = "ratrig"
	EquipmentElegoo    Equipment = "elegoo"
	EquipmentAnycubic  Equipment = "anycubic"
	EquipmentArtillery Equipment = "artillery"
	EquipmentSovol     Equipment = "sovol"
)

// Metadata keys populated by the firmware detector for Klipper files.
const (
	MetaStartMacro     = "start_macro"     // string: raw start-macro line
	MetaExtruderTemp   = "extruder_temp"   // float64: EXTRUDER= value from the macro
	MetaBedTemp        = "bed_temp"        // float64: BED= value from the macro
	MetaDetectedMacros = "detected_macros" // []string: macro evidence lines
)

// PrinterContext is the externally detected printing environment. The
// analysis core reads it to pick a rule-engine variant and never
// mutates it.
type PrinterContext struct {
	Slicer         Slicer         `json:"slicer"`
	SlicerVersion  string         `json:"slicer_version,omitempty"`
	Firmware       Firmware       `json:"firmware"`
	Equipment      Equipment      `json:"equipment"`
	EquipmentModel string         `json:"equipment_model,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// MetaString returns a string metadata entry, or "" when absent or of
// the wrong type.
func (c PrinterContext) MetaString(key string) string {
	if v, ok := c.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// MetaFloat returns a numeric metadata entry and whether it was present.
func (c PrinterContext) MetaFloat(key string) (float64, bool) {
	v, ok := c.Metadata[key].(float64)
	return v, ok
}

// HasMeta reports whether the metadata map carries the key.
func (c PrinterContext) HasMeta(key string) bool {
	_, ok := c.Metadata[key]
	return ok
}

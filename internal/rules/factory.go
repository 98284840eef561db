package rules

import "gcode_inspector/internal/models"

// ForContext picks the engine variant for a printer context. Selection
// is pure and deterministic, and Base is the guaranteed fallback.
//
// Equipment wins over firmware: Bambu Lab machines emit Klipper-style
// commands (SET_VELOCITY_LIMIT and friends) without running Klipper,
// so a true-firmware match must not shadow the equipment match.
func ForContext(ctx models.PrinterContext) *Engine {
	switch {
	case ctx.Equipment == models.EquipmentBambuLab:
		return &Engine{v: bambuVariant{equipmentModel: ctx.EquipmentModel}, ctx: ctx}
	case ctx.Firmware == models.FirmwareKlipper:
		meta := ctx.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		return &Engine{v: klipperVariant{meta: meta}, ctx: ctx}
	case ctx.Slicer == models.SlicerBambuStudio:
		return &Engine{v: bambuVariant{equipmentModel: ctx.EquipmentModel}, ctx: ctx}
	default:
		return &Engine{v: baseVariant{}, ctx: ctx}
	}
}

// KindForContext reports which variant ForContext would select.
func KindForContext(ctx models.PrinterContext) Kind {
	return ForContext(ctx).Kind()
}

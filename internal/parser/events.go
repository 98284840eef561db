package parser

import "gcode_inspector/internal/models"

// tempCommands are the temperature-setting mnemonics tracked by the
// event pipeline: M104/M109 nozzle, M140/M190 bed.
var tempCommands = map[string]bool{
	"M104": true,
	"M109": true,
	"M140": true,
	"M190": true,
}

// ExtractTempEvents collects every temperature-setting command that
// carries an S parameter, in file order.
func ExtractTempEvents(lines []models.ParsedLine) []models.TempEvent {
	var events []models.TempEvent
	for _, line := range lines {
		if !tempCommands[line.Command] {
			continue
		}
		temp, ok := line.Params["S"]
		if !ok {
			continue
		}
		events = append(events, models.TempEvent{
			LineIndex: line.Index,
			Temp:      temp,
			Command:   line.Command,
		})
	}
	return events
}

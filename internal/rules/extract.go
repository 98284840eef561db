package rules

import (
	"math"

	"gcode_inspector/internal/sections"
)

// extractData builds the structured summary of temperature, speed and
// extrusion facts shared by all variants.
func extractData(in input) ExtractedData {
	data := ExtractedData{
		SectionInfo: map[string]any{
			"start_end":   in.bounds.StartEnd,
			"body_end":    in.bounds.BodyEnd,
			"total_lines": in.bounds.TotalLines,
			"body_length": in.bounds.BodyEnd - in.bounds.StartEnd,
		},
	}

	for _, event := range in.events {
		section := in.bounds.Section(event.LineIndex)
		reading := TempReading{
			Line:    event.LineIndex,
			Command: event.Command,
			Temp:    event.Temp,
			Section: string(section),
		}

		switch {
		case event.IsNozzle():
			data.NozzleTemps = append(data.NozzleTemps, reading)
			if event.Temp > 0 {
				data.HasNozzleTemp = true
			}
		case event.IsBed():
			data.BedTemps = append(data.BedTemps, reading)
			if event.Temp > 0 {
				data.HasBedTemp = true
			}
		}

		if section == sections.SectionBody {
			data.TempChangesInBody = append(data.TempChangesInBody, reading)
		}
	}

	// Speed statistics: feed rate is modal, carried forward until the
	// next F parameter.
	var fValues, printSpeeds, travelSpeeds []float64
	currentF := 0.0
	for _, line := range in.lines {
		isMove := line.Command == "G0" || line.Command == "G1"
		if isMove {
			if f, ok := line.Params["F"]; ok {
				currentF = f
				fValues = append(fValues, f)
			}
		}

		if in.bounds.Section(line.Index) != sections.SectionBody || currentF <= 0 {
			continue
		}
		switch {
		case line.Command == "G1" && line.Param("E", 0) > 0:
			printSpeeds = append(printSpeeds, currentF)
		case isMove && !line.HasParam("E"):
			travelSpeeds = append(travelSpeeds, currentF)
		}
	}

	if len(fValues) > 0 {
		data.HasFeedRate = true
		data.SpeedStats = &SpeedStats{
			MinMMS:       toMMS(minOf(fValues)),
			MaxMMS:       toMMS(maxOf(fValues)),
			AvgMMS:       toMMS(avgOf(fValues)),
			PrintAvgMMS:  toMMS(avgOf(printSpeeds)),
			TravelAvgMMS: toMMS(avgOf(travelSpeeds)),
			Count:        len(fValues),
		}
	}

	// Extrusion span.
	for _, line := range in.lines {
		if line.Command == "G1" && line.Param("E", 0) > 0 {
			if data.FirstExtrusionLine == 0 {
				data.FirstExtrusionLine = line.Index
			}
			data.LastExtrusionLine = line.Index
		}
	}

	// Did extrusion begin before the first temperature wait?
	firstM109 := 0
	for _, event := range in.events {
		if event.Command == "M109" && event.Temp > 0 {
			if firstM109 == 0 || event.LineIndex < firstM109 {
				firstM109 = event.LineIndex
			}
		}
	}
	if data.FirstExtrusionLine > 0 && firstM109 > 0 {
		data.ExtrusionBeforeTempWait = data.FirstExtrusionLine < firstM109
	}

	return data
}

// toMMS converts a feed rate from mm/min to mm/s, rounded to one
// decimal place.
func toMMS(mmPerMin float64) float64 {
	return math.Round(mmPerMin/60*10) / 10
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs {
		if v > m {
			m = v
		}
	}
	return m
}

func avgOf(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

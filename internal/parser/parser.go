// Package parser turns raw G-code text into structured lines. Parsing
// is tolerant by contract: any input line yields a ParsedLine, and a
// token that cannot be read as a number is dropped rather than failing
// the line.
package parser

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"gcode_inspector/internal/models"
)

// maxLineBytes bounds a single scanned line. Slicer output stays far
// below this; binary garbage fed by mistake should not abort the scan.
const maxLineBytes = 1 << 20

// ParseLine parses one raw line into a ParsedLine. index is the 1-based
// line number. It never fails: blank, pure-comment and malformed lines
// all produce a valid record.
func ParseLine(raw string, index int) models.ParsedLine {
	raw = strings.TrimRight(raw, " \t\r\n")

	body := raw
	comment := ""
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		body = strings.TrimSpace(raw[:i])
		comment = strings.TrimSpace(raw[i+1:])
	} else {
		body = strings.TrimSpace(raw)
	}

	line := models.ParsedLine{
		Index:   index,
		Raw:     raw,
		Params:  map[string]float64{},
		Comment: comment,
	}
	if body == "" {
		return line
	}

	fields := strings.Fields(body)
	line.Command = strings.ToUpper(fields[0])

	for _, tok := range fields[1:] {
		key := tok[:1]
		if r := rune(key[0]); !unicode.IsLetter(r) {
			continue
		}
		val, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil {
			// Non-numeric parameter (macro arguments, key=value
			// extensions). Dropped here; variant rule engines read
			// such tokens from Raw when they matter.
			continue
		}
		line.Params[strings.ToUpper(key)] = val
	}
	return line
}

// Parse reads line-oriented G-code from r and parses every line.
// Line numbering is 1-based. The only error it can return is a read
// error from the underlying source.
func Parse(r io.Reader) ([]models.ParsedLine, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []models.ParsedLine
	for i := 1; sc.Scan(); i++ {
		lines = append(lines, ParseLine(sc.Text(), i))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ParseString parses an in-memory G-code document.
func ParseString(content string) []models.ParsedLine {
	lines, _ := Parse(strings.NewReader(content))
	return lines
}

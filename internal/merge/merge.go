// Package merge applies caller-approved line deltas to an original
// G-code sequence as a streaming operation. Neither the source nor the
// output is ever held in memory in full; the only state sized to the
// input is the set of delta maps, which grows with the delta count.
package merge

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"

	"gcode_inspector/internal/models"
)

// maxLineBytes mirrors the parser's scan bound.
const maxLineBytes = 1 << 20

// skippedWarningLimit caps how many indices one warning names.
const skippedWarningLimit = 10

// deltaMaps is the per-action view of an unordered delta collection.
// Insert lists keep caller order for ties at one index.
type deltaMaps struct {
	modify  map[int]string
	deletes map[int]struct{}
	before  map[int][]string
	after   map[int][]string

	// unknown holds the line indices of deltas whose action matched no
	// known kind. They take part in the skip accounting, never the merge.
	unknown []int
}

func buildMaps(deltas []models.LineDelta) deltaMaps {
	m := deltaMaps{
		modify:  map[int]string{},
		deletes: map[int]struct{}{},
		before:  map[int][]string{},
		after:   map[int][]string{},
	}
	for _, d := range deltas {
		switch d.Action {
		case models.DeltaModify:
			if d.NewContent != "" {
				m.modify[d.LineIndex] = d.NewContent
			}
		case models.DeltaDelete:
			m.deletes[d.LineIndex] = struct{}{}
		case models.DeltaInsertBefore:
			if d.NewContent != "" {
				m.before[d.LineIndex] = append(m.before[d.LineIndex], d.NewContent)
			}
		case models.DeltaInsertAfter:
			if d.NewContent != "" {
				m.after[d.LineIndex] = append(m.after[d.LineIndex], d.NewContent)
			}
		default:
			m.unknown = append(m.unknown, d.LineIndex)
		}
	}
	return m
}

// targetIndices returns every distinct index the delta set references.
func (m deltaMaps) targetIndices() map[int]struct{} {
	all := map[int]struct{}{}
	for idx := range m.modify {
		all[idx] = struct{}{}
	}
	for idx := range m.deletes {
		all[idx] = struct{}{}
	}
	for idx := range m.before {
		all[idx] = struct{}{}
	}
	for idx := range m.after {
		all[idx] = struct{}{}
	}
	return all
}

// normalize makes a line end in exactly one newline.
func normalize(line string) string {
	return strings.TrimRight(line, "\r\n") + "\n"
}

// Merge returns a lazy sequence applying deltas to the source lines.
// Source indices are 0-based. Per index the emission order is:
// insert-before entries, then exactly one of {nothing (deleted),
// replacement (modified), the original line}, then insert-after
// entries. Insert-after fires even for a deleted line, since insertion
// position is independent of deletion.
//
// result is filled while streaming; the skipped-delta accounting and
// warnings are complete only once the sequence has been fully
// consumed. Stopping early simply stops: no partial line is emitted
// and no state dangles, but the totals then cover only the consumed
// prefix. Deltas whose index is never encountered (beyond the source
// length, or negative) are counted as skipped, and so are deltas whose
// action matches no known kind.
func Merge(src iter.Seq[string], deltas []models.LineDelta, result *models.DeltaMergeResult) iter.Seq[string] {
	return func(yield func(string) bool) {
		maps := buildMaps(deltas)
		applied := map[int]struct{}{}

		idx := 0
		for line := range src {
			result.TotalLines++

			for _, content := range maps.before[idx] {
				if !yield(normalize(content)) {
					return
				}
				applied[idx] = struct{}{}
			}

			if _, deleted := maps.deletes[idx]; deleted {
				applied[idx] = struct{}{}
			} else if content, ok := maps.modify[idx]; ok {
				if !yield(normalize(content)) {
					return
				}
				applied[idx] = struct{}{}
			} else if !yield(normalize(line)) {
				return
			}

			for _, content := range maps.after[idx] {
				if !yield(normalize(content)) {
					return
				}
				applied[idx] = struct{}{}
			}

			idx++
		}

		targets := maps.targetIndices()
		var skipped []int
		for t := range targets {
			if _, ok := applied[t]; !ok {
				skipped = append(skipped, t)
			}
		}
		result.AppliedDeltas = len(applied)
		result.SkippedDeltas = len(skipped)

		if len(skipped) > 0 {
			sort.Ints(skipped)
			sample := skipped
			if len(sample) > skippedWarningLimit {
				sample = sample[:skippedWarningLimit]
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%d delta(s) not applied (line index outside the source): %v",
				len(skipped), sample))
		}

		if len(maps.unknown) > 0 {
			result.SkippedDeltas += len(maps.unknown)
			sort.Ints(maps.unknown)
			sample := maps.unknown
			if len(sample) > skippedWarningLimit {
				sample = sample[:skippedWarningLimit]
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%d delta(s) dropped (unknown action) at line index: %v",
				len(maps.unknown), sample))
		}
	}
}

// Lines streams a reader line by line for Merge. Read errors terminate
// the sequence; use Apply when the error must be surfaced.
func Lines(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		for sc.Scan() {
			if !yield(sc.Text()) {
				return
			}
		}
	}
}

// Apply merges deltas from r into w and returns the reconciliation
// report. The source is streamed; memory use is bounded by the delta
// count.
func Apply(r io.Reader, w io.Writer, deltas []models.LineDelta) (models.DeltaMergeResult, error) {
	var result models.DeltaMergeResult

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	src := func(yield func(string) bool) {
		for sc.Scan() {
			if !yield(sc.Text()) {
				return
			}
		}
	}

	bw := bufio.NewWriter(w)
	for line := range Merge(src, deltas, &result) {
		if _, err := bw.WriteString(line); err != nil {
			return result, fmt.Errorf("write merged output: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return result, fmt.Errorf("read merge source: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return result, fmt.Errorf("flush merged output: %w", err)
	}
	return result, nil
}

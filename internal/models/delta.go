package models

// DeltaAction is the kind of edit a LineDelta requests.
type DeltaAction string

const (
	DeltaModify       DeltaAction = "modify"
	DeltaDelete       DeltaAction = "delete"
	DeltaInsertBefore DeltaAction = "insert_before"
	DeltaInsertAfter  DeltaAction = "insert_after"
)

// Valid reports whether the action is one of the four known kinds.
func (a DeltaAction) Valid() bool {
	switch a {
	case DeltaModify, DeltaDelete, DeltaInsertBefore, DeltaInsertAfter:
		return true
	}
	return false
}

// NeedsContent reports whether the action requires NewContent.
func (a DeltaAction) NeedsContent() bool {
	return a != DeltaDelete
}

// LineDelta is one caller-requested edit, addressed by 0-based index
// into the ORIGINAL line sequence. Deltas form an unordered collection;
// ties among multiple inserts at one index keep caller order.
type LineDelta struct {
	LineIndex  int         `json:"line_index"`
	Action     DeltaAction `json:"action"`
	NewContent string      `json:"new_content,omitempty"`
}

// DeltaMergeResult accumulates statistics for one merge invocation.
// A fresh value is used per merge and discarded after reporting.
type DeltaMergeResult struct {
	TotalLines    int      `json:"total_lines"`
	AppliedDeltas int      `json:"applied_deltas"`
	SkippedDeltas int      `json:"skipped_deltas"`
	Warnings      []string `json:"warnings,omitempty"`
}

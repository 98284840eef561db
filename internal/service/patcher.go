package service

import (
	"context"
	"fmt"
	"time"

	"gcode_inspector/internal/logger"
	"gcode_inspector/internal/merge"
	"gcode_inspector/internal/models"
)

// PatchReport is the outcome of one merge run.
type PatchReport struct {
	Merge models.DeltaMergeResult `json:"merge"`

	// ValidationWarnings come from the up-front delta validation and
	// never stop the merge. Malformed deltas are skipped and counted.
	ValidationWarnings []string `json:"validation_warnings,omitempty"`
}

// PatchService streams the original through the delta merge.
type PatchService struct {
	log *logger.Logger
	now func() time.Time
}

func NewPatchService(log *logger.Logger) *PatchService {
	return &PatchService{log: log, now: time.Now}
}

// Patch validates the deltas, optionally writes the provenance header
// and streams the merged output. It fails only on I/O errors or a
// malformed request; bad deltas degrade to warnings and skip counts.
func (p *PatchService) Patch(ctx context.Context, req PatchRequest) (*PatchReport, error) {
	if req.Source == nil || req.Output == nil {
		return nil, fmt.Errorf("patch %q: nil source or output", req.OriginalName)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	warnings := merge.Validate(req.Deltas, req.SourceLines)
	for _, w := range warnings {
		p.log.Warnw("delta validation", "file", req.OriginalName, "warning", w)
	}

	if req.WithHeader {
		if err := merge.WriteHeader(req.Output, req.Deltas, req.OriginalName, p.now()); err != nil {
			return nil, fmt.Errorf("patch %q: %w", req.OriginalName, err)
		}
	}

	result, err := merge.Apply(req.Source, req.Output, req.Deltas)
	if err != nil {
		return nil, fmt.Errorf("patch %q: %w", req.OriginalName, err)
	}

	p.log.Infow("patch complete",
		"file", req.OriginalName,
		"lines", result.TotalLines,
		"applied", result.AppliedDeltas,
		"skipped", result.SkippedDeltas,
	)
	return &PatchReport{Merge: result, ValidationWarnings: warnings}, nil
}

// Package service wires the analysis pipeline behind small interfaces
// so the surrounding surfaces (CLI today, an API layer tomorrow)
// depend on behavior, not construction.
package service

import (
	"context"
	"io"

	"gcode_inspector/internal/config"
	"gcode_inspector/internal/logger"
	"gcode_inspector/internal/models"
	"gcode_inspector/internal/profile"
)

// Analyzer runs the full structural analysis of one file.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisReport, error)
	AnalyzeFile(ctx context.Context, path, filament string) (*AnalysisReport, error)
}

// Patcher applies caller-approved deltas to an original stream.
type Patcher interface {
	Patch(ctx context.Context, req PatchRequest) (*PatchReport, error)
}

// Sectioner exposes boundary detection on its own, for callers that
// only need the partitioning.
type Sectioner interface {
	Sections(ctx context.Context, r io.Reader) (*SectionReport, error)
}

// Service aggregates all sub-services.
type Service struct {
	Analyzer
	Patcher
	Sectioner
}

// NewService wires configuration and the profile store into concrete
// services.
func NewService(cfg config.Config, profiles *profile.Store, log *logger.Logger) *Service {
	if profiles == nil {
		profiles = profile.NewStore()
	}
	if log == nil {
		log = logger.Nop()
	}

	analyzer := NewAnalyzerService(cfg, profiles, log)
	return &Service{
		Analyzer:  analyzer,
		Patcher:   NewPatchService(log),
		Sectioner: analyzer,
	}
}

// AnalyzeRequest names one analysis invocation. Source is read once.
// Context, when non-nil, overrides the built-in environment detection;
// Filament optionally names a profile for the temperature floor.
type AnalyzeRequest struct {
	Source   io.Reader
	Name     string
	Filament string
	Context  *models.PrinterContext
}

// PatchRequest names one merge invocation. Deltas address 0-based
// indices of the original stream.
type PatchRequest struct {
	Source       io.Reader
	Output       io.Writer
	Deltas       []models.LineDelta
	OriginalName string

	// WithHeader prepends the provenance comment block to the output.
	WithHeader bool

	// SourceLines, when known (> 0), lets the pre-validation pass flag
	// out-of-range indices up front instead of only counting skips.
	SourceLines int
}

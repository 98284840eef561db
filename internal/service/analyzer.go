package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"gcode_inspector/internal/anomaly"
	"gcode_inspector/internal/config"
	"gcode_inspector/internal/detect"
	"gcode_inspector/internal/logger"
	"gcode_inspector/internal/models"
	"gcode_inspector/internal/parser"
	"gcode_inspector/internal/profile"
	"gcode_inspector/internal/rules"
	"gcode_inspector/internal/sections"
)

// AnalysisReport is the full structural analysis of one file.
type AnalysisReport struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`
	FileName    string    `json:"file_name"`
	TotalLines  int       `json:"total_lines"`

	Context    models.PrinterContext `json:"printer_context"`
	Boundaries sections.Boundaries   `json:"sections"`

	Rules rules.Output `json:"rules"`

	Events       []anomaly.EventAnalysis `json:"temp_events"`
	EventSummary anomaly.EventSummary    `json:"event_summary"`

	Sweep     anomaly.SweepReport `json:"temp_sweep"`
	Anomalies []models.Anomaly    `json:"anomalies"`

	// Snippets holds the bounded context handed to the external
	// explanation service, keyed by line index: one per escalated
	// temperature event and per detected anomaly.
	Snippets map[int]string `json:"snippets,omitempty"`
}

// SectionReport is the standalone output of boundary detection.
type SectionReport struct {
	TotalLines int                 `json:"total_lines"`
	Boundaries sections.Boundaries `json:"sections"`
	Summary    string              `json:"summary"`
}

// AnalyzerService runs the pipeline: parse, detect the environment,
// partition, run the context-matched rule engine, classify temperature
// events and sweep the BODY section.
type AnalyzerService struct {
	cfg      config.Config
	profiles *profile.Store
	log      *logger.Logger
}

func NewAnalyzerService(cfg config.Config, profiles *profile.Store, log *logger.Logger) *AnalyzerService {
	return &AnalyzerService{cfg: cfg, profiles: profiles, log: log}
}

// Analyze reads the source once and produces a complete report.
func (s *AnalyzerService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisReport, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("analyze %q: nil source", req.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := parser.Parse(req.Source)
	if err != nil {
		return nil, fmt.Errorf("analyze %q: %w", req.Name, err)
	}

	printerCtx := detect.Context(lines)
	if req.Context != nil {
		printerCtx = *req.Context
	}

	bounds := sections.Detect(lines)
	events := parser.ExtractTempEvents(lines)

	engine := rules.ForContext(printerCtx)
	output := engine.RunChecks(lines, events, bounds)

	analyses := anomaly.AnalyzeEvents(events, bounds)

	var filament *profile.Filament
	filamentName := req.Filament
	if filamentName != "" {
		if p, ok := s.profiles.Lookup(filamentName); ok {
			filament = &p
		} else {
			s.log.Warnw("unknown filament profile, falling back to heuristic floor",
				"filament", filamentName, "file", req.Name)
		}
	}
	sweep := anomaly.ScanTemperatures(events, lines, bounds, filament, filamentName)

	anomalies := anomaly.Detect(lines, bounds, s.cfg.SafeExtrusionTemp)
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].LineIndex < anomalies[j].LineIndex
	})

	snippets := map[int]string{}
	for _, ea := range analyses {
		if ea.NeedsEscalation {
			snippets[ea.Event.LineIndex] = anomaly.Snippet(lines, ea.Event.LineIndex, s.cfg.SnippetWindow, s.cfg.SnippetMaxLines)
		}
	}
	for _, a := range anomalies {
		if _, ok := snippets[a.LineIndex]; !ok {
			snippets[a.LineIndex] = anomaly.Snippet(lines, a.LineIndex, s.cfg.SnippetWindow, s.cfg.SnippetMaxLines)
		}
	}

	report := &AnalysisReport{
		ReportID:     uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		FileName:     req.Name,
		TotalLines:   len(lines),
		Context:      printerCtx,
		Boundaries:   bounds,
		Rules:        output,
		Events:       analyses,
		EventSummary: anomaly.Summarize(analyses),
		Sweep:        sweep,
		Anomalies:    anomalies,
		Snippets:     snippets,
	}

	s.log.Infow("analysis complete",
		"file", req.Name,
		"report_id", report.ReportID,
		"lines", report.TotalLines,
		"engine", output.EngineKind,
		"quality", output.QualityScore,
		"anomalies", len(anomalies),
		"sweep_issues", sweep.Summary.TotalIssues,
	)
	return report, nil
}

// AnalyzeFile opens path and analyzes it. The report's FileName is the
// base name of the path.
func (s *AnalyzerService) AnalyzeFile(ctx context.Context, path, filament string) (*AnalysisReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("analyze file: %w", err)
	}
	defer f.Close()

	return s.Analyze(ctx, AnalyzeRequest{
		Source:   f,
		Name:     filepath.Base(path),
		Filament: filament,
	})
}

// Sections runs boundary detection alone.
func (s *AnalyzerService) Sections(ctx context.Context, r io.Reader) (*SectionReport, error) {
	if r == nil {
		return nil, fmt.Errorf("sections: nil source")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("sections: %w", err)
	}
	bounds := sections.Detect(lines)

	return &SectionReport{
		TotalLines: len(lines),
		Boundaries: bounds,
		Summary:    bounds.String(),
	}, nil
}

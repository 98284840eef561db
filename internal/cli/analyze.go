package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/service"
)

var (
	analyzeFilament string
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file> [file...]",
	Short: "Run the full structural analysis of one or more G-code files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFilament, "filament", "", "Filament profile name for the temperature floor (e.g. PLA)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Emit the full report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	g, ctx := errgroup.WithContext(cmd.Context())
	if cfg.MaxConcurrentFiles > 0 {
		g.SetLimit(cfg.MaxConcurrentFiles)
	}

	var mu sync.Mutex
	reports := make(map[string]*service.AnalysisReport, len(args))

	for _, path := range args {
		g.Go(func() error {
			report, err := svc.AnalyzeFile(ctx, path, analyzeFilament)
			if err != nil {
				return err
			}
			mu.Lock()
			reports[path] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Report in argument order regardless of completion order.
	for _, path := range args {
		report := reports[path]
		if analyzeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			continue
		}
		printReport(cmd, report)
	}
	return nil
}

func printReport(cmd *cobra.Command, r *service.AnalysisReport) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "=== %s ===\n", r.FileName)
	fmt.Fprintf(out, "report %s, %d lines\n", r.ReportID, r.TotalLines)
	fmt.Fprintf(out, "environment: slicer=%s firmware=%s equipment=%s\n",
		r.Context.Slicer, r.Context.Firmware, r.Context.Equipment)
	if macro := r.Context.MetaString(models.MetaStartMacro); macro != "" {
		fmt.Fprintf(out, "start macro: %s\n", macro)
	}
	fmt.Fprintf(out, "sections: %s\n", r.Boundaries.String())
	fmt.Fprintf(out, "engine: %s, quality %d/100 (%s)\n",
		r.Rules.EngineKind, r.Rules.QualityScore, r.Rules.QualityMessage)

	for _, check := range r.Rules.Checks {
		status := "PASS"
		if !check.Passed {
			status = "FAIL"
		}
		if check.Skipped {
			status = "SKIP"
		}
		fmt.Fprintf(out, "  [%s] %-28s %s\n", status, check.Name, check.Message)
	}

	if len(r.Rules.CriticalFlags) > 0 {
		fmt.Fprintf(out, "critical flags:\n")
		for _, flag := range r.Rules.CriticalFlags {
			fmt.Fprintf(out, "  ! %s\n", flag)
		}
	}

	if r.EventSummary.ConfirmedAnomalies > 0 || r.EventSummary.NeedsEscalation > 0 {
		fmt.Fprintf(out, "temperature events: %d total, %d confirmed anomalies, %d need escalation\n",
			r.EventSummary.TotalEvents, r.EventSummary.ConfirmedAnomalies, r.EventSummary.NeedsEscalation)
	}

	if n := r.Sweep.Summary.TotalIssues; n > 0 {
		fmt.Fprintf(out, "temperature sweep: %d issue(s), floor %.0f°C\n",
			n, r.Sweep.Summary.MinTempThreshold)
		for _, group := range r.Sweep.Grouped {
			lines := make([]int, len(group.Lines))
			copy(lines, group.Lines)
			sort.Ints(lines)
			fmt.Fprintf(out, "  [%s] %s (%s): lines %s\n",
				group.ID, group.Title, group.Severity, joinInts(lines))
		}
	}

	for _, a := range r.Anomalies {
		fmt.Fprintf(out, "anomaly [%s] line %d (%s): %s\n",
			a.Type, a.LineIndex, a.Severity, a.Message)
	}
	if len(r.Anomalies) == 0 && r.Sweep.Summary.TotalIssues == 0 && len(r.Rules.CriticalFlags) == 0 {
		fmt.Fprintln(out, "no anomalies detected")
	}
	fmt.Fprintln(out)
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

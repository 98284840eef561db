package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gcode_inspector/internal/models"
	"gcode_inspector/internal/service"
)

var (
	patchDeltasPath string
	patchOutPath    string
	patchHeader     bool
)

var patchCmd = &cobra.Command{
	Use:   "patch <file>",
	Short: "Apply a JSON delta file onto the original G-code",
	Long: `patch streams the original file through the delta merge. The delta
file holds a JSON array of {line_index, action, new_content} records
with 0-based indices into the original. Deltas that cannot be placed
are skipped and counted, never fatal.`,
	Args: cobra.ExactArgs(1),
	RunE: runPatch,
}

func init() {
	patchCmd.Flags().StringVar(&patchDeltasPath, "deltas", "", "JSON delta file (required)")
	patchCmd.Flags().StringVarP(&patchOutPath, "output", "o", "", "Output path (default: stdout)")
	patchCmd.Flags().BoolVar(&patchHeader, "header", false, "Prepend the provenance comment block")
	patchCmd.MarkFlagRequired("deltas")
}

func runPatch(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(patchDeltasPath)
	if err != nil {
		return fmt.Errorf("read deltas: %w", err)
	}
	var deltas []models.LineDelta
	if err := json.Unmarshal(raw, &deltas); err != nil {
		return fmt.Errorf("parse deltas: %w", err)
	}
	for i, d := range deltas {
		if !d.Action.Valid() {
			return fmt.Errorf("parse deltas: entry %d has unknown action %q", i, d.Action)
		}
	}

	src, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	out := cmd.OutOrStdout()
	if patchOutPath != "" {
		f, err := os.Create(patchOutPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	report, err := svc.Patch(cmd.Context(), service.PatchRequest{
		Source:       src,
		Output:       out,
		Deltas:       deltas,
		OriginalName: args[0],
		WithHeader:   patchHeader,
	})
	if err != nil {
		return err
	}

	status := cmd.ErrOrStderr()
	fmt.Fprintf(status, "merged %d lines: %d applied, %d skipped\n",
		report.Merge.TotalLines, report.Merge.AppliedDeltas, report.Merge.SkippedDeltas)
	for _, w := range report.ValidationWarnings {
		fmt.Fprintf(status, "warning: %s\n", w)
	}
	for _, w := range report.Merge.Warnings {
		fmt.Fprintf(status, "warning: %s\n", w)
	}
	return nil
}

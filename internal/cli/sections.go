package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sectionsJSON bool

var sectionsCmd = &cobra.Command{
	Use:   "sections <file>",
	Short: "Detect the START/BODY/END partition of a G-code file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSections,
}

func init() {
	sectionsCmd.Flags().BoolVar(&sectionsJSON, "json", false, "Emit the boundaries as JSON")
}

func runSections(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := svc.Sections(cmd.Context(), f)
	if err != nil {
		return err
	}

	if sectionsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
	return nil
}

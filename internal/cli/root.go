// Package cli is the cobra command surface of the inspector.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gcode_inspector/internal/config"
	"gcode_inspector/internal/logger"
	"gcode_inspector/internal/profile"
	"gcode_inspector/internal/service"
)

var (
	// Global flags
	verbose      bool
	profilesPath string

	cfg config.Config
	log *logger.Logger
	svc *service.Service
)

var rootCmd = &cobra.Command{
	Use:   "gcode-inspector",
	Short: "Structural analyzer for 3D-printing G-code",
	Long: `gcode-inspector parses G-code files without executing them and
reports structural problems: missing or misordered temperature
commands, forced nozzle shutdowns mid-print, cold extrusion and
suspicious temperature swings. It can also apply line-level patches
produced by an external reviewer back onto the original file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = logger.DebugLevel
		}
		log = logger.Get(cfg.LogLevel)

		profiles := profile.NewStore()
		path := profilesPath
		if path == "" {
			path = cfg.FilamentProfiles
		}
		if path != "" {
			if err := profiles.LoadFile(path); err != nil {
				return fmt.Errorf("load filament profiles: %w", err)
			}
		}

		svc = service.NewService(cfg, profiles, log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "", "Filament profile YAML file (overrides config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(patchCmd)
}

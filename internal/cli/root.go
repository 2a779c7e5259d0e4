// Package cli implements the func-align command line interface.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"func-align/internal/config"
	"func-align/internal/logging"
)

// rootFlags carries the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

// setup resolves configuration (file or environment) and builds the
// logger, applying the persistent flag overrides.
func (f *rootFlags) setup() (*config.Config, *zap.Logger, error) {
	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.Load(f.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if f.logLevel != "" {
		level = f.logLevel
	}
	logger, err := logging.New(level, cfg.Log.JSON || f.logJSON)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "func-align",
		Short: "Align functional brain responses between subjects",
		Long: `func-align learns a mapping from one subject's functional responses onto
another's, region by region, and applies it to held-out data. Matrices are
headerless CSV with one sample per row and one feature (voxel) per column.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file (default: FUNCALIGN_* environment and built-ins)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "emit JSON logs instead of console output")

	cmd.AddCommand(newFitCmd(flags))
	cmd.AddCommand(newTransformCmd(flags))
	cmd.AddCommand(newScoreCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

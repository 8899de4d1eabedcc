package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finsight/internal/app"
	"github.com/cleared-dev/finsight/internal/buildinfo"
	"github.com/cleared-dev/finsight/internal/config"
	"github.com/cleared-dev/finsight/internal/logger"
)

// rootOptions holds the persistent flags and what they resolve to.
type rootOptions struct {
	dir        string
	configPath string
	logLevel   string
	json       bool

	cfg *config.Config
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:     "finsight",
		Short:   "Personal finance ingestion, anomaly detection and coaching",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.dir, "dir", ".", "project directory")
	pf.StringVar(&opts.configPath, "config", "", "config file (default <dir>/finsight.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level override")
	pf.BoolVar(&opts.json, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(
		newInitCommand(),
		newIngestCommand(opts),
		newTransactionsCommand(opts),
		newAnomaliesCommand(opts),
		newDedupeCommand(opts),
		newSubscriptionsCommand(opts),
		newEnrichCommand(opts),
		newRenameClusterCommand(opts),
		newBreakdownCommand(opts),
		newInsightsCommand(opts),
		newForecastCommand(opts),
		newCoachCommand(opts),
	)

	return rootCmd
}

// setup loads .env and config, then puts the logger in the command context.
// A missing config file falls back to defaults unless --config was given.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	absDir, err := filepath.Abs(o.dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	o.dir = absDir

	if err := config.LoadEnv(filepath.Join(o.dir, ".env")); err != nil {
		return err
	}

	path := o.configPath
	if path == "" {
		path = filepath.Join(o.dir, config.FileName)
	}
	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case o.configPath == "" && errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	default:
		return err
	}
	config.ApplyEnv(cfg, os.Getenv)
	o.cfg = cfg

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	l, err := logger.Configure(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}
	cmd.SetContext(logger.WithContext(cmd.Context(), l))
	return nil
}

// open opens the project service. Callers close it.
func (o *rootOptions) open() (*app.Service, error) {
	return app.Open(o.dir, o.cfg)
}

package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m-a-p/link-archiver/internal/archive"
	"github.com/m-a-p/link-archiver/internal/clock/system"
	"github.com/m-a-p/link-archiver/internal/config"
	"github.com/m-a-p/link-archiver/internal/extract"
	"github.com/m-a-p/link-archiver/internal/logging"
	"github.com/m-a-p/link-archiver/internal/logstore"
	"github.com/m-a-p/link-archiver/internal/ratelimit"
	"github.com/m-a-p/link-archiver/internal/runner"
	"github.com/m-a-p/link-archiver/internal/services"
)

// newArchiveCmd creates the 'archive' subcommand, which runs one batch
// over the given files (or over every YAML file under --dir with --all).
func newArchiveCmd() *cobra.Command {
	var all bool
	var dir string

	cmd := &cobra.Command{
		Use:   "archive [files...]",
		Short: "Archive the URLs found in the given YAML files",
		Long: `Parses each YAML file, extracts its URLs, submits them to the
configured archiving services with retry and backoff, and merges the
results into the archive log. Unparsable files are skipped with a
warning; per-URL failures are recorded in the log rather than failing
the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd, args, all, dir)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "archive every YAML file under --dir instead of an explicit list")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to scan when --all is set")

	return cmd
}

func runArchive(cmd *cobra.Command, args []string, all bool, dir string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	files := args
	if all {
		files, err = extract.FindFiles(dir)
		if err != nil {
			return fmt.Errorf("discover yaml files: %w", err)
		}
	}
	if len(files) == 0 {
		logger.Warn("no input files, nothing to archive")
		return nil
	}

	svcs, err := buildServices(cfg)
	if err != nil {
		return err
	}

	clk := system.New()
	r := runner.New(
		svcs,
		archive.NewSubmitter(cfg.RetryPolicy(), clk, logger),
		logstore.New(cfg.Log.Path, logger),
		ratelimit.New(cfg.MinServiceInterval()),
		clk,
		logger,
	)

	_, counters, err := r.Run(cmd.Context(), files)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}

	logger.Info("archive command finished",
		zap.Int("urls", counters.URLs),
		zap.Int("failed", counters.Failed),
	)
	return nil
}

// buildServices assembles the enabled archiving backends.
func buildServices(cfg config.Config) ([]archive.Service, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout()}
	agents := services.NewAgentPool(cfg.HTTP.UserAgents)

	var svcs []archive.Service
	if cfg.Services.Wayback.Enabled {
		svcs = append(svcs, services.NewWayback(cfg.Services.Wayback.Endpoint, client, agents))
	}
	if cfg.Services.ArchiveToday.Enabled {
		at, err := services.NewArchiveToday(cfg.Services.ArchiveToday.Endpoint, client, agents)
		if err != nil {
			return nil, fmt.Errorf("init archive.today: %w", err)
		}
		svcs = append(svcs, at)
	}
	return svcs, nil
}

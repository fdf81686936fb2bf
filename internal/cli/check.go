package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgivc/vsxsync/internal/adapter/manifest"
	"github.com/jgivc/vsxsync/internal/adapter/openvsx"
	"github.com/jgivc/vsxsync/internal/config"
	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/jgivc/vsxsync/internal/service/download"
	"github.com/jgivc/vsxsync/internal/service/sync"
	"github.com/jgivc/vsxsync/internal/storage/ledger"
	"github.com/jgivc/vsxsync/internal/storage/results"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Output       string
	DownloadsDir string
	Download     bool
	Clean        bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <manifest.yaml>",
		Short: "Partition a manifest into registry-available and marketplace-only extensions",
		Long: `Check every extension declared in the manifest against the Open VSX
registry and write the availability partition to the results file. The
snapshot fully replaces any previous run.

Partial unavailability is a normal outcome, not a failure; the command
fails only when the manifest cannot be parsed or the results cannot be
written.

Example:
  vsxsync check extensions.yaml
  vsxsync check extensions.yaml --download --downloads-dir ./downloads`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "r", "", "results file (default from config)")
	cmd.Flags().StringVarP(&opts.DownloadsDir, "downloads-dir", "d", "", "downloads directory (default from config)")
	cmd.Flags().BoolVarP(&opts.Download, "download", "a", false, "download marketplace-only extensions after the check")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "empty the downloads directory before downloading")

	return cmd
}

func runCheck(opts *CheckOptions, manifestPath string, cmd *cobra.Command) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	if opts.Output != "" {
		cfg.ResultsFile = opts.Output
	}
	if opts.DownloadsDir != "" {
		cfg.DownloadsDir = opts.DownloadsDir
	}

	log := opts.logger()

	refs, err := manifest.NewParser().ParseFile(manifestPath)
	if err != nil {
		return fmt.Errorf("cannot parse manifest: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Checking %d extensions against %s...\n", len(refs), cfg.RegistryURL)

	registry := openvsx.NewClient(cfg.RegistryURL, log)
	resultsStore := results.NewStorage(cfg.ResultsFile, log)

	res, err := sync.NewSyncService(registry, resultsStore, log).Check(cmd.Context(), refs)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Available on Open VSX: %d\n", len(res.Available))
	fmt.Fprintf(cmd.OutOrStdout(), "Marketplace only:      %d\n", len(res.Unavailable))
	for _, ext := range res.Unavailable {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", ext.ID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", cfg.ResultsFile)

	if !opts.Download || len(res.Unavailable) == 0 {
		return nil
	}

	return downloadUnavailable(opts, cfg, res.Unavailable, cmd)
}

func downloadUnavailable(opts *CheckOptions, cfg *config.Config, refs []entity.ExtensionRef, cmd *cobra.Command) error {
	log := opts.logger()

	if opts.Clean {
		if err := os.RemoveAll(cfg.DownloadsDir); err != nil {
			return fmt.Errorf("cannot clean downloads dir: %w", err)
		}
	}

	ledgerStore := ledger.NewStorage(cfg.LedgerFile, log)
	registry := openvsx.NewClient(cfg.RegistryURL, log)
	dSrv := download.NewDownloadService(registry, ledgerStore, cfg.DownloadsDir, log)

	fmt.Fprintf(cmd.OutOrStdout(), "Downloading %d extensions from the marketplace...\n", len(refs))

	summary := dSrv.DownloadAll(cmd.Context(), refs)

	fmt.Fprintf(cmd.OutOrStdout(), "Done: %d succeeded, %d failed\n", summary.Succeeded, summary.Failed)

	return nil
}

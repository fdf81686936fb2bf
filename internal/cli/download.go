package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgivc/vsxsync/internal/adapter/openvsx"
	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/jgivc/vsxsync/internal/service/download"
	"github.com/jgivc/vsxsync/internal/storage/ledger"
)

// DownloadOptions holds flags for the download command.
type DownloadOptions struct {
	*RootOptions
	DownloadsDir string
	Version      string
}

// NewDownloadCommand creates the download command.
func NewDownloadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DownloadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "download <publisher.name>",
		Short:         "Download one extension, registry first, marketplace as fallback",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(opts, args[0], "", cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.DownloadsDir, "downloads-dir", "d", "", "downloads directory (default from config)")
	cmd.Flags().StringVar(&opts.Version, "version", "", "marketplace version (default \"latest\")")

	return cmd
}

func runDownload(opts *DownloadOptions, id, fileNameOverride string, cmd *cobra.Command) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	if opts.DownloadsDir != "" {
		cfg.DownloadsDir = opts.DownloadsDir
	}

	log := opts.logger()

	ledgerStore := ledger.NewStorage(cfg.LedgerFile, log)
	registry := openvsx.NewClient(cfg.RegistryURL, log)
	dSrv := download.NewDownloadService(registry, ledgerStore, cfg.DownloadsDir, log)

	info, err := dSrv.DownloadByID(cmd.Context(), id, opts.Version, fileNameOverride)
	if err != nil {
		if info == nil {
			// The id could not be resolved to any download location.
			return err
		}

		printManualDownload(cmd, info, err)

		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s to %s\n", id, info.DownloadPath)

	return nil
}

// printManualDownload reports a derived but unverified marketplace
// location after a failed transfer; the user has to finish the download
// by hand.
func printManualDownload(cmd *cobra.Command, info *entity.DownloadInfo, err error) {
	fmt.Fprintf(cmd.OutOrStdout(), "Download failed: %v\n", err)
	fmt.Fprintf(cmd.OutOrStdout(), "Manual download required:\n")
	if info.MarketplaceURL != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  marketplace page: %s\n", info.MarketplaceURL)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  direct url:       %s\n", info.DirectDownloadURL)
	fmt.Fprintf(cmd.OutOrStdout(), "  save as:          %s\n", info.FileName)
}

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reuploader/internal/app"
	"reuploader/pkg/config"

	"github.com/spf13/cobra"
)

var (
	uploadURLsFile string
	uploadInterval time.Duration
	uploadDelete   bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Download every URL in urls.txt and upload it to YouTube",
	Long: `Process the URL list in order: download each URL with yt-dlp, upload the
file to YouTube and wait between items. Failures are logged and skipped.`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadURLsFile, "urls", "f", "", "URL list file (default from config, urls.txt)")
	uploadCmd.Flags().DurationVarP(&uploadInterval, "interval", "i", 0, "Pause between items (default from config, 30s)")
	uploadCmd.Flags().BoolVar(&uploadDelete, "delete", false, "Delete each file after a successful upload")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if uploadURLsFile != "" {
		cfg.Batch.URLsFile = uploadURLsFile
	}
	if uploadInterval > 0 {
		cfg.Batch.Interval = uploadInterval
	}
	if uploadDelete {
		cfg.Batch.DeleteAfterUpload = true
	}

	urls, err := app.ReadURLs(cfg.Batch.URLsFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		slog.Info("No URLs found", "file", cfg.Batch.URLsFile)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch, err := app.BuildBatch(ctx, cfg)
	if err != nil {
		return err
	}

	summary, err := batch.Run(ctx, urls)
	if errors.Is(err, context.Canceled) {
		slog.Info("Interrupted", "processed", len(summary.Results), "remaining", len(urls)-len(summary.Results))
		return nil
	}
	return err
}

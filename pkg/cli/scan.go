package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bstardust/imgmeta/internal/config"
	"github.com/bstardust/imgmeta/internal/journal"
	"github.com/bstardust/imgmeta/internal/logger"
	"github.com/bstardust/imgmeta/internal/scanner"
)

const journalSaveInterval = 30 * time.Second

func newScanCommand(a *app, defaults *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [flags] <folder> | <archive.zip> | s3://bucket/prefix ...",
		Short: "Extract metadata from every image of folders, zip archives or buckets",
		Long: `scan walks every source and writes one JSON line per image:
{"source": ..., "path": ..., "summary": ..., "metadata": {...}}`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), cmd.OutOrStdout(), a.cfg, args)
		},
	}

	// Output options
	cmd.Flags().String("out", defaults.Scan.Output, "Write JSON lines to this file instead of stdout")
	cmd.Flags().Int("concurrency", defaults.Scan.Concurrency, "Number of images processed concurrently")
	cmd.Flags().String("journal", defaults.Scan.JournalPath, "Path to journal file for resumable scans")
	cmd.Flags().Bool("resume", defaults.Scan.Resume, "Skip images recorded in the journal by a previous run")
	cmd.Flags().Duration("timeout", defaults.Scan.Timeout, "Per-image fetch timeout (0 disables)")

	// S3 connection flags
	cmd.Flags().String("endpoint", defaults.S3.Endpoint, "S3 endpoint URL, required for s3:// sources")
	cmd.Flags().String("region", defaults.S3.Region, "S3 region")
	cmd.Flags().String("access-key", defaults.S3.AccessKey, "S3 access key (empty for anonymous access)")
	cmd.Flags().String("secret-key", defaults.S3.SecretKey, "S3 secret key")
	cmd.Flags().Bool("use-ssl", defaults.S3.UseSSL, "Use SSL for S3 connection")
	cmd.Flags().Int64("max-size", defaults.S3.MaxObjectSize, "Largest object downloaded from S3, in bytes")

	return cmd
}

func runScan(ctx context.Context, stdout io.Writer, cfg *config.Config, args []string) error {
	var jnl *journal.Journal
	if cfg.Scan.JournalPath != "" || cfg.Scan.Resume {
		jnl = journal.New(cfg.Scan.JournalPath)
		if cfg.Scan.Resume {
			if err := jnl.Load(); err != nil {
				return fmt.Errorf("failed to load journal: %w", err)
			}
			total, failed := jnl.Stats()
			logger.Info("Resuming scan: %d images already processed (%d failed)", total, failed)
		}
		jnl.StartPeriodicSave(ctx, journalSaveInterval)
		defer jnl.StopPeriodicSave()
	}

	sources, err := scanner.OpenSources(ctx, args, cfg.S3)
	if err != nil {
		return err
	}
	defer scanner.CloseSources(sources)

	out := stdout
	var file *os.File
	if cfg.Scan.Output != "" && cfg.Scan.Output != "-" {
		file, err = os.Create(cfg.Scan.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	s := scanner.New(out, scanner.Options{
		Concurrency: cfg.Scan.Concurrency,
		Resume:      cfg.Scan.Resume,
		Journal:     jnl,
		Timeout:     cfg.Scan.Timeout,
	})
	if _, err := s.Run(ctx, sources); err != nil {
		return err
	}

	if file != nil {
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
	}
	return nil
}

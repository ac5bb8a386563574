// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bstardust/imgmeta/internal/config"
	"github.com/bstardust/imgmeta/internal/logger"
)

// app carries state shared by the subcommands once flags are parsed
type app struct {
	configPath string
	cfg        *config.Config
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	defaults := config.New()

	rootCmd := &cobra.Command{
		Use:   "imgmeta",
		Short: "Extract EXIF, GPS and file metadata from images",
		Long: `imgmeta reads embedded EXIF and GPS metadata plus file-level properties from image files,
normalizes every value into JSON-safe form and derives decimal coordinates, display sections
and a one-line summary. Images can come from local folders, zip archives or S3-compatible buckets.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			a.cfg = cfg
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default imgmeta.yaml in . or $HOME/.config/imgmeta)")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", defaults.LogFormat, "Log format (text, json)")

	// Add commands
	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newScanCommand(a, defaults))
	rootCmd.AddCommand(newServeCommand(a, defaults))

	return rootCmd
}

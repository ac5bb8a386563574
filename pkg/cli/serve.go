package cli

import (
	"github.com/spf13/cobra"

	"github.com/bstardust/imgmeta/internal/config"
	"github.com/bstardust/imgmeta/internal/server"
)

func newServeCommand(a *app, defaults *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve image metadata over HTTP",
		Long: `serve exposes the images of one folder:
  GET /healthz                 liveness probe
  GET /images                  image file names in the folder
  GET /images/{name}/metadata  raw metadata, display sections and summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.New(a.cfg.Server).Start(cmd.Context())
		},
	}

	cmd.Flags().String("addr", defaults.Server.Addr, "Listen address")
	cmd.Flags().String("images", defaults.Server.ImagesDir, "Folder holding the images")

	return cmd
}

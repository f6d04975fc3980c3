package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/meghashyamc/docquery/api"
	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/logger"
	"github.com/spf13/cobra"
)

func serveCMD(environ func() []string) *cobra.Command {
	var (
		port       int
		host       string
		dev        bool
		watchPaths []string
	)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Set(config.KeyServerPort, strconv.Itoa(port))
			}
			if cmd.Flags().Changed("host") {
				cfg.Set(config.KeyServerHost, host)
			}

			if !dev {
				return api.Run(cmd.Context(), cfg)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Starting development server with hot reloading on %s\n", cfg.GetAddress())

			paths := append([]string{}, watchPaths...)
			if file := cfg.FileUsed(); file != "" {
				paths = append(paths, filepath.Dir(file))
			}
			supervisor, err := newDevSupervisor(
				logger.New(cfg.GetLogLevel(), logger.FormatText),
				[]string{"serve", "--host", cfg.GetHost(), "--port", cfg.GetPort()},
				environ(),
				envFile,
				paths,
			)
			if err != nil {
				return err
			}
			return supervisor.Run(cmd.Context())
		},
	}
	serve.Flags().IntVar(&port, "port", 8000, "port to run the server on")
	serve.Flags().StringVar(&host, "host", "127.0.0.1", "host to run the server on")
	serve.Flags().BoolVar(&dev, "dev", false, "restart the server whenever watched files change")
	serve.Flags().StringSliceVar(&watchPaths, "watch", nil, "extra files or directories to watch in --dev mode")

	return serve
}

package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	dispatchservice "geo-dispatch/cmd/dispatch_service"
	"geo-dispatch/internal/general/logger"
)

func newServeCmd(opts *options) *cobra.Command {
	var maxConcurrent int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatch HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("max-concurrent") && maxConcurrent < 1 {
				return errors.New("--max-concurrent must be >= 1")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if maxConcurrent > 0 {
				cfg.Service.MaxConcurrent = maxConcurrent
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return dispatchservice.Run(ctx, cfg, logger.New(cfg.Service.Name))
		},
	}
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "maximum number of concurrent HTTP requests (default from config)")
	return cmd
}

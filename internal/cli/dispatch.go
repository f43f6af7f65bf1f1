package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	dispatchservice "geo-dispatch/cmd/dispatch_service"
	"geo-dispatch/internal/general/config"
	"geo-dispatch/internal/general/logger"
)

// errNothingToDispatch is returned when the memory backend would start empty.
var errNothingToDispatch = errors.New("memory backend has no seed: set seed.path or seed.demo, or use the postgres backend")

func newDispatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch ORDER_ID",
		Short: "Assign the best available driver to one order in the configured store",
		Long: `Assign the best available driver to one order in the configured store.

With the memory backend the store is rebuilt from the seed on every run and
the assignment is lost when the command exits. Without a seed there is
nothing to dispatch, so the command refuses to run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Backend == config.StorageMemory && cfg.Seed.Path == "" && !cfg.Seed.Demo {
				return errNothingToDispatch
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// logs go to stderr so stdout carries only the result
			log := logger.NewWithWriter("dispatch-command", cmd.ErrOrStderr())
			app, err := dispatchservice.NewApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.DispatchService(nil, nil).AssignDriverToOrder(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

// Package cli is the geo-dispatch command line: the HTTP service plus one-shot
// commands for routing, dispatch and token issuing.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"geo-dispatch/internal/general/config"
)

type options struct {
	cfgPath string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "geo-dispatch",
		Short:         "Road-network driver dispatch service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (YAML or JSON); GD_* env vars override it")

	root.AddCommand(newServeCmd(opts), newRouteCmd(), newDispatchCmd(opts), newTokenCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }

func (opts *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/fluxchart"
	"github.com/viant/fluxchart/service/lifecycle"
	"github.com/viant/fluxchart/service/messaging/fs"
)

var rootCmd = &cobra.Command{
	Use:           "fluxchart",
	Short:         "fluxchart runs hierarchical state charts",
	Long:          `fluxchart loads YAML chart definitions, validates them and drives machines with events.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration URL")
}

// newService builds the engine from the --config flag.
func newService(cmd *cobra.Command, options ...fluxchart.Option) (*fluxchart.Service, error) {
	location, _ := cmd.Flags().GetString("config")
	if location != "" {
		config, err := fluxchart.LoadConfig(cmd.Context(), location)
		if err != nil {
			return nil, err
		}
		options = append(options, fluxchart.WithConfig(config))
	}
	return fluxchart.New(options...)
}

// openJournal opens a folder backed queue of lifecycle records.
func openJournal(ctx context.Context, location string) (*fs.Queue[lifecycle.Record], error) {
	config := fs.DefaultConfig(url.Normalize(location, file.Scheme))
	return fs.NewQueue[lifecycle.Record](ctx, afs.New(), config)
}

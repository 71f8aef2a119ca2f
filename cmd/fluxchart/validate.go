package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var validateCmd = &cobra.Command{
	Use:   "validate <chart URL>...",
	Short: "Check chart definitions",
	Long:  `Parses each chart and builds its state tree, reporting structural errors and unknown actions.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newService(cmd)
		if err != nil {
			return err
		}
		failed := 0
		for _, location := range args {
			def, err := srv.LoadChart(cmd.Context(), url.Normalize(location, file.Scheme))
			if err == nil {
				_, err = srv.Build(def)
			}
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%v: %v\n", location, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v: ok\n", location)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d charts are invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

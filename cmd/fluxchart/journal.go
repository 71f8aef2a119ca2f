package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/fluxchart/service/lifecycle"
	"github.com/viant/fluxchart/service/messaging/fs"
)

var journalCmd = &cobra.Command{
	Use:   "journal <folder>",
	Short: "Print recorded lifecycle events",
	Long:  `Drains pending lifecycle records written by 'run --journal'. With --follow it keeps polling.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		queue, err := openJournal(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		consumer := lifecycle.NewConsumer(queue, func(record *lifecycle.Record) error {
			_, err := fmt.Fprintf(out, "%s %s %s\n", record.CreatedAt.Format(time.RFC3339Nano), record.MachineID, record.Text)
			return err
		})
		done := make(chan error, 1)
		go func() { done <- consumer.Run(ctx) }()
		if follow {
			return <-done
		}
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case err = <-done:
				return err
			case <-ticker.C:
				if drained(ctx, queue) {
					cancel()
					return <-done
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().BoolP("follow", "f", false, "keep polling for new records")
}

func drained(ctx context.Context, queue *fs.Queue[lifecycle.Record]) bool {
	pending, err := queue.Len(ctx, fs.MessageStatePending)
	if err != nil || pending > 0 {
		return false
	}
	processing, err := queue.Len(ctx, fs.MessageStateProcessing)
	return err == nil && processing == 0
}

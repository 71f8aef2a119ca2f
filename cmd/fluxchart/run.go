package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/fluxchart"
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/policy"
	"github.com/viant/fluxchart/service/action/input"
	"github.com/viant/fluxchart/service/lifecycle"
)

var runCmd = &cobra.Command{
	Use:   "run <chart URL>",
	Short: "Run a chart",
	Long: `Starts a machine, delivers the --event values in order and waits for the outcome.
With --stdin every input line is delivered as an event type; end of input ends the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceP("event", "e", nil, "event type to deliver, repeatable")
	runCmd.Flags().Bool("stdin", false, "read event types from standard input")
	runCmd.Flags().Bool("quiet", false, "do not print lifecycle events")
	runCmd.Flags().Duration("timeout", time.Minute, "maximum run time")
	runCmd.Flags().String("journal", "", "folder receiving lifecycle records")
	runCmd.Flags().Bool("ask", false, "confirm every action on standard input")
}

func runChart(cmd *cobra.Command, args []string) error {
	events, _ := cmd.Flags().GetStringSlice("event")
	fromStdin, _ := cmd.Flags().GetBool("stdin")
	quiet, _ := cmd.Flags().GetBool("quiet")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	journal, _ := cmd.Flags().GetString("journal")
	ask, _ := cmd.Flags().GetBool("ask")
	if ask && fromStdin {
		return fmt.Errorf("--ask and --stdin both read standard input")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	out := cmd.OutOrStdout()
	var listeners []lifecycle.Listener
	if !quiet {
		listeners = append(listeners, lifecycle.ListenerFunc(func(evt lifecycle.Event) error {
			fmt.Fprintf(out, "%s %v\n", evt.Timestamp().Format(time.RFC3339Nano), evt)
			return nil
		}))
	}
	if journal != "" {
		queue, err := openJournal(ctx, journal)
		if err != nil {
			return err
		}
		listeners = append(listeners, lifecycle.NewPublisher(context.Background(), queue))
	}
	prompt := input.NewWithIO(cmd.InOrStdin(), out)
	options := []fluxchart.Option{fluxchart.WithListeners(listeners...), fluxchart.WithExtensionServices(prompt)}
	if ask {
		options = append(options, fluxchart.WithPolicy(&policy.Policy{Mode: policy.ModeAsk, Ask: confirm(prompt)}))
	}
	srv, err := newService(cmd, options...)
	if err != nil {
		return err
	}
	def, err := srv.LoadChart(ctx, url.Normalize(args[0], file.Scheme))
	if err != nil {
		return err
	}
	rt := srv.Runtime()
	m, err := rt.StartMachine(ctx, def)
	if err != nil {
		return err
	}
	for _, eventType := range events {
		if err = rt.Deliver(ctx, m.ID(), event.New(eventType, nil)); err != nil {
			return err
		}
	}
	if fromStdin {
		if err = deliverLines(ctx, rt, m.ID(), cmd.InOrStdin()); err != nil {
			return err
		}
	}
	record, err := rt.Wait(ctx, m.ID())
	if err != nil {
		_ = rt.Shutdown(context.Background())
		return fmt.Errorf("machine %v did not finish: %w", m.ID(), err)
	}
	fmt.Fprintf(out, "machine %v finished: %v\n", record.ID, record.Outcome)
	if record.Outcome == outcome.Failed.String() {
		return fmt.Errorf("machine %v failed: %v", record.ID, record.Fault)
	}
	return nil
}

// confirm asks on the terminal before an action runs.
func confirm(prompt *input.Service) policy.AskFunc {
	choose, _ := prompt.Method("choose")
	return func(ctx context.Context, action string, _ interface{}) (bool, error) {
		output := &input.ChooseOutput{}
		err := choose(ctx, &input.ChooseInput{Message: "run " + action + "?", Options: []string{"yes", "no"}, Default: "yes"}, output)
		if err != nil {
			return false, err
		}
		return output.Value == "yes", nil
	}
}

// deliverLines delivers one event per non-empty line and the end event at EOF.
func deliverLines(ctx context.Context, rt *fluxchart.Runtime, id string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		eventType := strings.TrimSpace(scanner.Text())
		if eventType == "" {
			continue
		}
		if err := rt.Deliver(ctx, id, event.New(eventType, nil)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return rt.Deliver(ctx, id, event.End())
}

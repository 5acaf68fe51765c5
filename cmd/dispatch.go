package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/event-hooks/internal/logging"
	"github.com/leefowlercu/event-hooks/internal/processor"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch a single event",
	Long: "Read one auto-mode event from stdin (or --file), run every enabled hook bound to its " +
		"trigger, wait for all of them, and print a summary.\n\n" +
		"The event may be an envelope {\"type\": \"auto-mode:event\", \"payload\": {...}} or a bare payload " +
		"such as {\"type\": \"auto_mode_feature_complete\", \"featureId\": \"F1\", \"passes\": true}.",
	Args: cobra.NoArgs,
	RunE: runDispatch,
}

func init() {
	dispatchCmd.Flags().StringP("file", "f", "", "Read the event from a file instead of stdin")
	dispatchCmd.Flags().Bool("fail-on-error", false, "Exit non-zero when any hook fails")
}

func runDispatch(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")

	var input io.Reader = cmd.InOrStdin()
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open event file; %w", err)
		}
		defer f.Close()
		input = f
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	recorder, err := newRecorder()
	if err != nil {
		return err
	}

	report, err := processor.Process(cmd.Context(), input, cmd.OutOrStdout(), processor.Options{
		Settings: store,
		Recorder: recorder,
		Topic:    appConfig.Events.Topic,
		Logger:   logging.Component(logger, "dispatch"),
	})
	if err != nil {
		return err
	}

	if failOnError && report.Failed() > 0 {
		return fmt.Errorf("%d of %d hooks failed", report.Failed(), len(report.Results))
	}

	return nil
}

package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leefowlercu/event-hooks/internal/config"
	"github.com/leefowlercu/event-hooks/internal/dispatch"
	"github.com/leefowlercu/event-hooks/internal/events"
	"github.com/leefowlercu/event-hooks/internal/logging"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// shutdownGrace is how long serve waits for in-flight hooks on exit. It
// covers the default shell timeout so a normal hook is never cut short.
const shutdownGrace = types.DefaultShellTimeout + 5*time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run hooks for events as they arrive",
	Long: "Subscribe to auto-mode events and dispatch each one concurrently as it arrives.\n\n" +
		"Events are taken from *.json files written into the spool directory and, with --stdin, " +
		"from newline-delimited JSON on stdin. SIGINT or SIGTERM stops intake and waits for " +
		"running hooks before exiting.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("stdin", false, "Also read newline-delimited events from stdin")
	serveCmd.Flags().String("spool-dir", config.DefaultConfig.Spool.Dir, "Directory watched for event files")
	serveCmd.Flags().Bool("no-spool", false, "Do not watch a spool directory")

	viper.BindPFlag("spool.dir", serveCmd.Flags().Lookup("spool-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	readStdin, _ := cmd.Flags().GetBool("stdin")
	noSpool, _ := cmd.Flags().GetBool("no-spool")

	if noSpool && !readStdin {
		return newUsageError("nothing to serve; --no-spool requires --stdin")
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	recorder, err := newRecorder()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus := events.NewBus()
	svc := dispatch.NewService(bus, store, logging.Component(logger, "dispatch"),
		dispatch.WithTopic(appConfig.Events.Topic),
		dispatch.WithRecorder(recorder),
	)
	if err := svc.Start(); err != nil {
		return err
	}

	errs := make(chan error, 2)

	if !noSpool {
		dir, err := config.ExpandPath(appConfig.Spool.Dir)
		if err != nil {
			_ = svc.Close()
			return err
		}

		spool := events.NewSpool(dir, bus, logging.Component(logger, "spool"))
		go func() {
			errs <- spool.Run(ctx)
		}()
	}

	if readStdin {
		go func() {
			err := events.Pump(ctx, cmd.InOrStdin(), bus, logging.Component(logger, "stdin"))
			if err == nil && noSpool {
				// End of input is the end of the only source
				cancel()
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				errs <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}
	cancel()

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("in-flight hooks were cancelled")
	}

	return runErr
}

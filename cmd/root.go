package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leefowlercu/event-hooks/internal/config"
	"github.com/leefowlercu/event-hooks/internal/dispatch"
	"github.com/leefowlercu/event-hooks/internal/journal"
	"github.com/leefowlercu/event-hooks/internal/logging"
	"github.com/leefowlercu/event-hooks/internal/settings"
)

// Populated by runInit for every command except version
var (
	appConfig *config.Config
	logger    = zerolog.Nop()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "event-hooks",
	Short: "Run user-configured hooks on auto-mode lifecycle events",
	Long: "\nevent-hooks runs shell commands and HTTP webhooks when an automation run " +
		"finishes a feature, fails, or goes idle.\n\n" +
		"Hooks live in the host's global settings file under eventHooks. Events are read " +
		"from stdin (dispatch), or from an event spool directory and stdin stream (serve). " +
		"Logging is sent to stderr so stdout only carries command output.",
	PersistentPreRunE:  runInit,
	PersistentPostRunE: runTeardown,
	SilenceErrors:      true,
	SilenceUsage:       true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (default: ~/.event-hooks/config.yaml)")
	rootCmd.PersistentFlags().String("settings", config.DefaultConfig.Settings.Path, "Path to the global settings file holding eventHooks")
	rootCmd.PersistentFlags().String("log-level", config.DefaultConfig.Logging.Level, "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", config.DefaultConfig.Logging.Format, "Logging format (json, console)")

	// Bind flags to viper
	viper.BindPFlag("settings.path", rootCmd.PersistentFlags().Lookup("settings"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hooksCmd)

	// Enable --version flag on root command
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("event-hooks version {{.Version}}\n")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Get custom config path if provided
	configPath, _ := cmd.Flags().GetString("config")

	if err := config.InitConfig(configPath); err != nil {
		return fmt.Errorf("failed to initialize configuration; %w", err)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration; %w", err)
	}
	appConfig = cfg

	logger, logCloser, err = logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging; %w", err)
	}

	return nil
}

func runTeardown(cmd *cobra.Command, args []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

// newStore opens the settings store named by configuration
func newStore() (*settings.Store, error) {
	path, err := config.ExpandPath(appConfig.Settings.Path)
	if err != nil {
		return nil, err
	}
	return settings.NewStore(path), nil
}

// newRecorder returns the configured journal, or nil when none is configured
func newRecorder() (dispatch.Recorder, error) {
	if appConfig.Journal.File == "" {
		return nil, nil
	}

	j, err := journal.New(appConfig.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal; %w", err)
	}
	return j, nil
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if err != nil {
		cmd, _, _ := rootCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = rootCmd
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "\n")
			cmd.SetOut(os.Stderr)
			cmd.Usage()
		}

		return err
	}

	return nil
}

// usageError marks errors caused by bad command line input
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

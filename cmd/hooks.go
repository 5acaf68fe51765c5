package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/leefowlercu/event-hooks/internal/dispatch"
	"github.com/leefowlercu/event-hooks/internal/logging"
	"github.com/leefowlercu/event-hooks/internal/trigger"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage configured event hooks",
	Long:  "List, add, remove, enable, disable, and test the hooks stored under eventHooks in the global settings file.",
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured hooks",
	Args:  cobra.NoArgs,
	RunE:  runHooksList,
}

var hooksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a shell or HTTP hook",
	Long: "Add a hook bound to a trigger. Give --command for a shell hook or --url for an HTTP hook.\n\n" +
		"Templates may use {{featureId}}, {{featureName}}, {{projectPath}}, {{projectName}}, " +
		"{{error}}, {{errorType}}, {{timestamp}} and {{eventType}}.",
	Example: "  event-hooks hooks add --trigger feature_success --command 'notify-send \"{{featureName}} done\"'\n" +
		"  event-hooks hooks add --trigger auto_mode_error --url https://hooks.example.com/{{eventType}} --header 'Authorization=Bearer abc'",
	Args: cobra.NoArgs,
	RunE: runHooksAdd,
}

var hooksRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a hook",
	Args:  cobra.ExactArgs(1),
	RunE:  runHooksRemove,
}

var hooksEnableCmd = &cobra.Command{
	Use:   "enable ID",
	Short: "Enable a hook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setHookEnabled(cmd, args[0], true)
	},
}

var hooksDisableCmd = &cobra.Command{
	Use:   "disable ID",
	Short: "Disable a hook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setHookEnabled(cmd, args[0], false)
	},
}

var hooksTestCmd = &cobra.Command{
	Use:   "test ID",
	Short: "Run one hook against a sample event",
	Long:  "Run a single hook once, enabled or not, with a sample context matching its trigger.",
	Args:  cobra.ExactArgs(1),
	RunE:  runHooksTest,
}

func init() {
	hooksListCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")

	addHookFlags(hooksAddCmd.Flags())
	hooksAddCmd.MarkFlagRequired("trigger")
	hooksAddCmd.MarkFlagsMutuallyExclusive("command", "url")

	hooksCmd.AddCommand(hooksListCmd)
	hooksCmd.AddCommand(hooksAddCmd)
	hooksCmd.AddCommand(hooksRemoveCmd)
	hooksCmd.AddCommand(hooksEnableCmd)
	hooksCmd.AddCommand(hooksDisableCmd)
	hooksCmd.AddCommand(hooksTestCmd)
}

func runHooksList(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	store, err := newStore()
	if err != nil {
		return err
	}

	hooks, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list hooks; %w", err)
	}

	return writeHooks(cmd.OutOrStdout(), hooks, output)
}

func writeHooks(out io.Writer, hooks []types.Hook, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(hooks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode hooks; %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(hooks); err != nil {
			return fmt.Errorf("failed to encode hooks; %w", err)
		}
		return encoder.Close()
	case "table", "":
		return writeHookTable(out, hooks)
	default:
		return newUsageError("unsupported output format %q; expected table, json, or yaml", format)
	}
}

func writeHookTable(out io.Writer, hooks []types.Hook) error {
	if len(hooks) == 0 {
		_, err := fmt.Fprintln(out, "No hooks configured")
		return err
	}

	enabled := color.New(color.FgGreen).SprintFunc()
	disabled := color.New(color.FgHiBlack).SprintFunc()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRIGGER\tACTION\tSTATUS\tTARGET")
	for _, hook := range hooks {
		status := enabled("enabled")
		if !hook.Enabled {
			status = disabled("disabled")
		}

		name := ""
		if hook.Name != nil {
			name = *hook.Name
		}

		kind, target := describeAction(hook.Action)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", hook.ID, name, hook.Trigger, kind, status, target)
	}

	return w.Flush()
}

func describeAction(action types.Action) (string, string) {
	switch a := action.(type) {
	case types.ShellAction:
		return string(types.ActionShell), a.Command
	case types.HTTPAction:
		return string(types.ActionHTTP), fmt.Sprintf("%s %s", a.EffectiveMethod(), a.URL)
	default:
		return "unknown", ""
	}
}

func addHookFlags(flags *pflag.FlagSet) {
	flags.String("id", "", "Hook ID (default: generated)")
	flags.String("name", "", "Display name")
	flags.String("trigger", "", "Trigger (feature_success, feature_error, auto_mode_complete, auto_mode_error)")
	flags.Bool("disabled", false, "Store the hook disabled")
	flags.String("command", "", "Shell command template")
	flags.Int("timeout", 0, "Shell timeout in milliseconds (default: 30000)")
	flags.String("url", "", "HTTP URL template")
	flags.String("method", "", "HTTP method (GET, POST, PUT, PATCH; default: POST)")
	flags.StringArray("header", nil, "HTTP header template as KEY=VALUE (repeatable)")
	flags.String("body", "", "HTTP body template (default: JSON summary of the event)")
}

func runHooksAdd(cmd *cobra.Command, args []string) error {
	hook, err := hookFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	added, err := store.Add(cmd.Context(), hook)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added hook %s (%s)\n", added.ID, added.Label())
	return nil
}

func hookFromFlags(flags *pflag.FlagSet) (types.Hook, error) {
	id, _ := flags.GetString("id")
	name, _ := flags.GetString("name")
	triggerName, _ := flags.GetString("trigger")
	isDisabled, _ := flags.GetBool("disabled")
	command, _ := flags.GetString("command")
	url, _ := flags.GetString("url")

	kind, err := types.ParseTriggerKind(triggerName)
	if err != nil {
		return types.Hook{}, newUsageError("%v", err)
	}

	hook := types.Hook{ID: id, Enabled: !isDisabled, Trigger: kind}
	if name != "" {
		hook.Name = types.Ptr(name)
	}

	switch {
	case command != "":
		action := types.ShellAction{Command: command}
		if flags.Changed("timeout") {
			timeout, _ := flags.GetInt("timeout")
			action.Timeout = types.Ptr(timeout)
		}
		hook.Action = action

	case url != "":
		method, _ := flags.GetString("method")
		headers, _ := flags.GetStringArray("header")

		action := types.HTTPAction{URL: url, Method: types.HTTPMethod(method)}
		if method != "" && !action.EffectiveMethod().IsValid() {
			return types.Hook{}, newUsageError("unsupported method %q; expected GET, POST, PUT, or PATCH", method)
		}
		action.Method = types.HTTPMethod(strings.ToUpper(method))

		parsed, err := parseHeaders(headers)
		if err != nil {
			return types.Hook{}, err
		}
		action.Headers = parsed

		if flags.Changed("body") {
			body, _ := flags.GetString("body")
			action.Body = types.Ptr(body)
		}
		hook.Action = action

	default:
		return types.Hook{}, newUsageError("either --command or --url is required")
	}

	return hook, nil
}

func parseHeaders(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, newUsageError("invalid header %q; expected KEY=VALUE", value)
		}
		headers[key] = val
	}
	return headers, nil
}

func runHooksRemove(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	if err := store.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed hook %s\n", args[0])
	return nil
}

func setHookEnabled(cmd *cobra.Command, id string, enabled bool) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	hook, err := store.SetEnabled(cmd.Context(), id, enabled)
	if err != nil {
		return err
	}

	state := "Disabled"
	if enabled {
		state = "Enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s hook %s (%s)\n", state, hook.ID, hook.Label())
	return nil
}

func runHooksTest(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	hook, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !hook.Trigger.IsValid() {
		return fmt.Errorf("hook %s has unknown trigger %q", hook.ID, hook.Trigger)
	}
	hook.Enabled = true

	projectPath, _ := os.Getwd()
	eventType, payload := trigger.SampleEvent(hook.Trigger, projectPath)

	single := dispatch.SettingsFunc(func(ctx context.Context) (types.Settings, error) {
		return types.Settings{EventHooks: []types.Hook{hook}}, nil
	})

	d := dispatch.NewDispatcher(single, logging.Component(logger, "test"))
	report := d.Dispatch(cmd.Context(), eventType, payload)

	fmt.Fprintln(cmd.OutOrStdout(), dispatch.Summary(report))

	if report.Failed() > 0 {
		return fmt.Errorf("hook %s failed", hook.ID)
	}
	return nil
}

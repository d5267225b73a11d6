package commands

import (
	"context"
	"fmt"
	"log/slog"

	"covid19-scrapers/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose bool

var tel telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:           "sanmateo",
	Short:         "sanmateo scrapes the San Mateo County COVID-19 dashboard into a county document.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		var err error
		tel, err = telemetry.SetupFromEnv(cmd.Context(), "sanmateo")
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level.")
}

// flushTelemetry exports whatever spans and metrics are still batched.
var flushTelemetry = func(ctx context.Context) error {
	return tel.Shutdown(ctx)
}

// ExecuteContext runs the cli and returns the process exit code. telemetry
// is flushed whether or not the command failed.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)

	flushErr := flushTelemetry(context.WithoutCancel(ctx))
	if flushErr != nil {
		slog.Warn("failed to flush telemetry", "err", flushErr)
	}

	if err != nil {
		slog.Error("sanmateo failed", "err", err.Error())
		return 1
	}
	return 0
}

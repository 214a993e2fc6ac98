// Command pngstash hides, reveals and manages text messages stored in
// custom PNG chunks. The image data is left untouched; regular viewers keep
// displaying the file as before.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/morlinbrot/pngstash/pkg/ctxlog"
	"github.com/morlinbrot/pngstash/pkg/term"
)

// Version is overridden at build time.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "pngstash",
	Short: "Hide and reveal messages in PNG files",
	Long: `pngstash stores text messages in extra PNG chunks. Decoded messages go to
stdout, everything else to stderr, so the output can be piped safely.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}

		jsonLog, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}

		var logger zerolog.Logger
		if jsonLog {
			logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		} else {
			logger = zerolog.New(term.NewConsoleWriter(os.Stderr))
		}

		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)

		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), &logger))
		return nil
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().Bool("json", false, "log NDJSON instead of pretty console messages")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		term.PrintError(eris.ToString(err, os.Getenv("PNGSTASH_DEBUG") != ""))
		os.Exit(1)
	}
}

// Command packager is the CLI entry point: a cobra root command with a
// "mux" subcommand that drives the WebVTT canonical-instance pipeline
// (parser → segmenter → writer) end to end, and a "version" subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
	"github.com/spf13/cobra"
)

// version is the build-time version string; left as a constant since this
// module has no link-time -ldflags wiring.
const version = "0.1.0-dev"

func main() {
	root := &cobra.Command{
		Use:          "packager",
		Short:        "Media packaging engine",
		SilenceUsage: false,
	}

	var logLevel, logFile string
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (empty logs to stderr)")
	cobra.OnInitialize(func() {
		logging.Bootstrap(logLevel, logFile)
	})

	root.AddCommand(newMuxCommand())
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the packager version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	configDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "keypad",
		Short:         "Virtual keypad that drives a robot over ZeroMQ",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "config", "Directory containing keypad_config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level: debug|info|warn|error")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the keypad HTTP, websocket and ZeroMQ endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts)
		},
	}

	checkCmd := &cobra.Command{
		Use:     "check-config",
		Short:   "Validate the bootstrap and operational configuration and exit",
		Example: "  keypad check-config --config-dir ./config",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConfig(cmd, opts)
		},
	}

	root.AddCommand(serveCmd, checkCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "keypad: %v\n", err)
		os.Exit(1)
	}
}

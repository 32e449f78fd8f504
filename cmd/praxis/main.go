package main

import (
	"fmt"
	"os"

	"github.com/praxislearn/praxis/cmd/praxis/commands"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "praxis",
		Short: "Praxis learning assistant CLI",
		Long: `Command-line access to the praxis learning assistant: run the server,
ask one-shot questions, generate practice problems, and inspect model
availability.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory (default searches ., ./config, /etc/praxis)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	rootCmd.AddCommand(commands.NewServeCommand(&cfgPath))
	rootCmd.AddCommand(commands.NewAskCommand(&cfgPath))
	rootCmd.AddCommand(commands.NewModelsCommand(&cfgPath))
	rootCmd.AddCommand(commands.NewGenerateCommand(&cfgPath))

	return rootCmd
}

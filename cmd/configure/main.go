package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitmind/assistant/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "assistant-configure",
		Short: "Configuration tool for the FitMind assistant",
		Long:  "CLI tool for inspecting the knowledge corpus and runtime settings",
	}

	rootCmd.AddCommand(commands.NewCorpusCmd())
	rootCmd.AddCommand(commands.NewSearchCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

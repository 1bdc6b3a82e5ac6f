package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dialogue "github.com/studiobgc/dialogue-editor"
	"github.com/studiobgc/dialogue-editor/internal/presentation/tui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <export-file>",
	Short: "Play a dialogue flow interactively",
	Long:  `Imports the export file and walks the flow on the terminal, prompting on every branch point.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		start, _ := cmd.Flags().GetString("start")
		headless, _ := cmd.Flags().GetBool("headless")
		plain, _ := cmd.Flags().GetBool("plain")

		eng, err := dialogue.New(args[0], dialogue.WithLogger(newLogger(cmd)))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		runner := dialogue.NewRunner()
		runner.Input = os.Stdin
		runner.Output = os.Stdout
		runner.Headless = headless
		if !headless && !plain {
			tui.PrintBanner()
			runner.Renderer = tui.NewRenderer()
		}

		if err := runner.Run(context.Background(), eng, start); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("start", "", "Node to start from (technical name or hex ID)")
	runCmd.Flags().Bool("headless", false, "Always take the first branch, never prompt")
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
	_ = runCmd.MarkFlagRequired("start")
}

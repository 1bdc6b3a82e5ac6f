package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dialogue "github.com/studiobgc/dialogue-editor"
	"github.com/studiobgc/dialogue-editor/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <export-file>",
	Short: "Export the flow graph visualization",
	Long:  `Imports the export file and outputs a Mermaid diagram (graph TD) representing the flow logic.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := dialogue.New(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(graph.GenerateMermaid(eng.Database(), nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

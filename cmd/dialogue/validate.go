package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dialogue "github.com/studiobgc/dialogue-editor"
	"github.com/studiobgc/dialogue-editor/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <export-file>",
	Short: "Check an exported graph for consistency",
	Long:  `Imports the export file and reports dead connections, broken jumps, unreachable nodes and cycles.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	eng, err := dialogue.New(path)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}

	report := validator.Validate(eng.Database())
	for _, issue := range report.Issues {
		fmt.Println(issue)
	}

	if errs := report.Errors(); len(errs) > 0 {
		return fmt.Errorf("%d error(s)", len(errs))
	}
	fmt.Println("Graph is valid! ✅")
	return nil
}

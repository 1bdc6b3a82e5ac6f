package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dialogue "github.com/studiobgc/dialogue-editor"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dialogue",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dialogue version %s\n", dialogue.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

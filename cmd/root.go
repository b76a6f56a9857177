package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scorio",
	Short: "Music notation interchange",
	Long:  `Converts compact notation source into MEI or MIDI.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

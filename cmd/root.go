package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "strumline",
	Short: "Real-time guitar session engine",
	Long:  `Real-time guitar session engine: note timeline assembly, live scoring, and adaptive problem sections.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

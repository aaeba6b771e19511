package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strumline/strumline/model"
	"github.com/strumline/strumline/riff"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <midi-file>",
	Short: "Inspects a riff file",
	Long:  `Inspects a riff file`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	notes, err := riff.LoadFile(path)
	if err != nil {
		return err
	}

	perString := make(map[model.GuitarString]int)
	var end float64
	for _, n := range notes {
		perString[n.String]++
		if n.End > end {
			end = n.End
		}
	}

	fmt.Printf("notes: %v\n", len(notes))
	fmt.Printf("length: %.2fs\n", end)
	for _, s := range model.AllStrings {
		fmt.Printf("string %v: %v notes\n", s, perString[s])
	}
	return nil
}

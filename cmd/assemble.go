package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/strumline/strumline/assembler"
)

func init() {
	rootCmd.AddCommand(assembleCmd)
}

var assembleCmd = &cobra.Command{
	Use:   "assemble <chunks-file>",
	Short: "Assembles detection chunks into a note timeline",
	Long:  `Assembles a JSON file of chunked raw note candidates into a clean note timeline on stdout`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assemble(args[0])
	},
}

func assemble(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read chunks file: %w", err)
	}

	var chunks []assembler.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("could not parse chunks file: %w", err)
	}

	a := assembler.New(assembler.DefaultConfig())
	notes := a.Assemble(chunks)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(notes)
}

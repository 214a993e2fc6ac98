package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/morlinbrot/pngstash/pkg/png"
	"github.com/morlinbrot/pngstash/pkg/stash"
)

var removeCmd = &cobra.Command{
	Use:   "remove file chunk_type",
	Short: "Removes the first chunk of the given type from the file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return eris.New("Expected 2 arguments!")
		}

		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		typ, err := png.ParseChunkType(args[1])
		if err != nil {
			return err
		}

		return stash.Remove(cmd.Context(), args[0], typ, output)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringP("output", "o", "", "write the result to this file instead of rewriting the input")
}

package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/morlinbrot/pngstash/pkg/png"
	"github.com/morlinbrot/pngstash/pkg/stash"
)

var decodeCmd = &cobra.Command{
	Use:   "decode file chunk_type",
	Short: "Prints the message stored in the given chunk",
	Long: `Reads the first chunk with the given type code and prints its message to
stdout. Compressed payloads are decompressed transparently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return eris.New("Expected 2 arguments!")
		}

		typ, err := png.ParseChunkType(args[1])
		if err != nil {
			return err
		}

		msg, err := stash.Decode(cmd.Context(), args[0], typ)
		if err != nil {
			return err
		}

		fmt.Println(msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

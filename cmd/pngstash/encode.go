package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/morlinbrot/pngstash/pkg/png"
	"github.com/morlinbrot/pngstash/pkg/stash"
)

var encodeCmd = &cobra.Command{
	Use:   "encode file chunk_type message",
	Short: "Stores a message in a new chunk of the given PNG file",
	Long: `The message is appended as a new chunk with the given four-letter type code.
Lower-case codes (like "ruSt") mark the chunk as ancillary, which keeps every
standard decoder happy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 3 {
			return eris.New("Expected 3 arguments!")
		}

		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		compress, err := cmd.Flags().GetBool("compress")
		if err != nil {
			return err
		}

		typ, err := png.ParseChunkType(args[1])
		if err != nil {
			return err
		}

		return stash.Encode(cmd.Context(), args[0], stash.Options{
			Type:     typ,
			Message:  args[2],
			Output:   output,
			Compress: compress,
		})
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("output", "o", "", "write the result to this file instead of rewriting the input")
	encodeCmd.Flags().Bool("compress", false, "store the message xz-compressed")
}

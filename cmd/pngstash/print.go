package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/morlinbrot/pngstash/pkg/stash"
)

var printCmd = &cobra.Command{
	Use:   "print file",
	Short: "Lists every chunk of the given PNG file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return eris.New("Expected 1 argument!")
		}

		rows, err := stash.Inspect(args[0])
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"#", "Type", "Length", "CRC", "Flags", "Preview"})
		table.SetBorder(false)
		for _, row := range rows {
			table.Append([]string{
				strconv.Itoa(row.Index),
				row.Type.String(),
				strconv.FormatUint(uint64(row.Length), 10),
				fmt.Sprintf("%08x", row.CRC),
				chunkFlags(row),
				row.Preview,
			})
		}

		table.Render()
		return nil
	},
}

func chunkFlags(row stash.ChunkInfo) string {
	flags := make([]string, 0, 2)
	if row.Critical {
		flags = append(flags, "critical")
	}
	if row.SafeToCopy {
		flags = append(flags, "safe-to-copy")
	}

	return strings.Join(flags, ", ")
}

func init() {
	rootCmd.AddCommand(printCmd)
}

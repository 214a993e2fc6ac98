package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/morlinbrot/pngstash/pkg/stash"
	"github.com/morlinbrot/pngstash/pkg/term"
)

var scanCmd = &cobra.Command{
	Use:   "scan path [path...]",
	Short: "Searches PNG files for chunks outside the standard set",
	Long: `Looks through the given files and directories for PNG files carrying chunks
whose type is not part of the standard, which is where tools like this one
hide their messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return eris.New("Expected at least 1 argument!")
		}

		recursive, err := cmd.Flags().GetBool("recursive")
		if err != nil {
			return err
		}

		for _, root := range args {
			term.PrintSubtask("Scanning " + root)
		}

		var bar *progressbar.ProgressBar
		findings, err := stash.Scan(cmd.Context(), stash.ScanOptions{
			Roots:     args,
			Recursive: recursive,
			OnStart: func(total int) {
				bar = getProgressBar(int64(total), "Scanning")
			},
			OnFile: func(path string) {
				bar.Add(1)
			},
		})
		if err != nil {
			return err
		}

		if bar != nil {
			bar.Finish()
		}

		if len(findings) == 0 {
			term.PrintTask("No chunks outside the standard set found")
			return nil
		}

		term.PrintTask(fmt.Sprintf("Found %d chunk(s) outside the standard set", len(findings)))

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"File", "Type", "Length", "Preview"})
		table.SetBorder(false)
		for _, finding := range findings {
			table.Append([]string{
				finding.Path,
				finding.Type.String(),
				strconv.FormatUint(uint64(finding.Length), 10),
				finding.Preview,
			})
		}

		table.Render()
		return nil
	},
}

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.Default(length, desc)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
}

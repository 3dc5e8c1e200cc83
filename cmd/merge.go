package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pdfdusk/converter"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <a.pdf> <b.pdf> [more.pdf ...]",
	Short: "Merge PDF documents into one file",
	Long:  `Concatenates the given PDF documents, in argument order, into a single output file.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := converter.NewMerger()
		m.Progress = printProgress

		fmt.Printf("Merging %d documents...\n", len(args))
		if err := m.Merge(cmd.Context(), args, mergeOutput); err != nil {
			return fmt.Errorf("merge failed: %w", err)
		}

		color.Green("Successfully created: %s", mergeOutput)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged_document.pdf", "Output PDF file")
	rootCmd.AddCommand(mergeCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pdf-inplace-translator/internal/pdf"
)

func newValidateCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.pdf> [original.pdf]",
		Short: "Check that a PDF is well formed, and that it kept every page of the original",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(global); err != nil {
				return err
			}
			gen := pdf.NewPDFGenerator()
			if err := gen.ValidateOutput(args[0]); err != nil {
				return err
			}
			if len(args) > 1 {
				if err := gen.ValidatePageCount(args[1], args[0]); err != nil {
					return err
				}
			}
			n, err := gen.PageCount(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid, %d pages\n", args[0], n)
			return nil
		},
	}
}

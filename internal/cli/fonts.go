package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pdf-inplace-translator/internal/pdf"
)

func newFontsCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List the font chosen for each target language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			registry := buildFontRegistry(cfg)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "default: %s\n", registry.DefaultFont())
			for _, e := range registry.Fonts() {
				fmt.Fprintf(out, "%-8s %s\n", e.Prefix, e.FontID)
			}

			if len(cfg.FontFiles) > 0 {
				ids, err := pdf.InstallFonts(cfg.FontFiles, pdf.NewTrueTypeMeasurer())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "installed:")
				for _, id := range ids {
					fmt.Fprintf(out, "  %s\n", id)
				}
			}
			return nil
		},
	}
}

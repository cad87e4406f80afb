package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/paths"
)

var genDocDir string

func init() {
	genDocCmd.Flags().StringVarP(&genDocDir, "dir", "d", "./docs/cli",
		"output directory for generated documentation")
	rootCmd.AddCommand(genDocCmd)
}

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate markdown documentation for all commands",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := paths.EnsureDir(genDocDir, 0o755); err != nil {
			return errors.NewSystemError(err, "")
		}
		if err := doc.GenMarkdownTree(rootCmd, genDocDir); err != nil {
			return errors.NewSystemError(errors.Wrap(err, "generating documentation"), "")
		}
		return nil
	},
}

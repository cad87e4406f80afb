package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkeller/btrbkgen/internal/btrbk"
	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/logging"
	"github.com/mkeller/btrbkgen/internal/paths"
)

var renderOutDir string

func init() {
	renderCmd.Flags().StringVarP(&renderOutDir, "out-dir", "o", "",
		"write <name>.conf files to this directory instead of stdout")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [instance...]",
	Short: "Render btrbk.conf text for declared instances",
	Long: `Render builds each selected instance against the btrbk section schema
and prints the resulting configuration text. Without arguments every
declared instance is rendered. The output is deterministic: rendering
the same declaration twice yields byte-identical text.`,
	Example: `  # Print every instance to stdout
  btrbkgen render

  # Render one instance
  btrbkgen render daily

  # Write <name>.conf files to a directory
  btrbkgen render --out-dir ./out`,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())

	decl, err := loadDeclaration()
	if err != nil {
		return err
	}
	selected, err := selectInstances(decl, args)
	if err != nil {
		return err
	}

	for i := range selected {
		inst := &selected[i]
		root, err := btrbk.Build(inst)
		if err != nil {
			return errors.NewUserError(errors.Wrapf(err, "instance %q", inst.Name),
				"fix the declaration and re-run")
		}
		rendered := btrbk.Render(root)

		if renderOutDir != "" {
			if err := paths.EnsureDir(renderOutDir, 0o755); err != nil {
				return errors.NewSystemError(err, "")
			}
			out := filepath.Join(renderOutDir, inst.Name+".conf")
			if err := os.WriteFile(out, []byte(rendered), paths.ConfFilePerm); err != nil {
				return errors.NewSystemError(errors.Wrapf(err, "writing %s", out), "")
			}
			logger.Info("rendered instance", "instance", inst.Name, "path", out)
			continue
		}

		// btrbk.conf treats '#' lines as comments, so multiple rendered
		// instances stay distinguishable on stdout.
		if len(selected) > 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "# instance %s\n", inst.Name)
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		if i < len(selected)-1 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}

	return nil
}

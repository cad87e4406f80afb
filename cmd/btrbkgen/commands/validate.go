package commands

import (
	"github.com/spf13/cobra"

	"github.com/mkeller/btrbkgen/internal/btrbk"
	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/identity"
	"github.com/mkeller/btrbkgen/internal/instance"
	"github.com/mkeller/btrbkgen/internal/validator"
)

var (
	validateFormat    string
	validateSkipCheck bool
)

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", "text",
		"output format: text, json")
	validateCmd.Flags().BoolVar(&validateSkipCheck, "skip-check", false,
		"skip the round-trip through the btrbk binary")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [instance...]",
	Short: "Validate declared instances against the btrbk schema",
	Long: `Validate builds every selected instance against the btrbk section
schema, renders it, and round-trips the rendered text through the btrbk
binary to catch anything the schema does not model. SSH key declarations
are checked against the known filter roles. Without arguments every
declared instance is validated.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	decl, err := loadDeclaration()
	if err != nil {
		return err
	}
	selected, err := selectInstances(decl, args)
	if err != nil {
		return err
	}

	result := &validator.Result{}

	var checker *btrbk.Checker
	if !validateSkipCheck {
		checker = newChecker()
	}

	for i := range selected {
		validateInstance(cmd, checker, &selected[i], result)
	}

	// args scope instances only; key records are always part of a deploy
	if len(args) == 0 && len(decl.SSHKeys) > 0 {
		if _, err := identity.AuthorizedKeys(settings.SSHFilterPath, decl.SSHKeys); err != nil {
			result.AddError("ssh", err.Error(), nil)
		}
	}

	reporter := validator.NewReporter(cmd.OutOrStdout(), validator.Format(validateFormat))
	if err := reporter.Report(result); err != nil {
		return errors.NewSystemError(err, "")
	}

	if result.HasErrors() {
		return errors.NewExitError(nil, errors.ExitUser)
	}
	return nil
}

func validateInstance(cmd *cobra.Command, checker *btrbk.Checker, inst *instance.Instance, result *validator.Result) {
	root, err := btrbk.Build(inst)
	if err != nil {
		result.AddError(inst.Name, err.Error(), nil)
		return
	}

	targets := 0
	for _, vol := range inst.Volumes {
		targets += len(vol.Targets)
	}
	if targets == 0 {
		result.AddWarning(inst.Name, "no targets declared; snapshots will not be backed up anywhere", nil)
	}

	if checker == nil {
		return
	}

	rendered := btrbk.Render(root)
	if err := checker.Check(cmd.Context(), rendered); err != nil {
		var rej *btrbk.RejectionError
		if errors.As(err, &rej) {
			result.Issues = append(result.Issues, validator.Issue{
				Severity: validator.SeverityError,
				Field:    inst.Name,
				Message:  "btrbk rejected the rendered configuration",
				Context: map[string]string{
					"diagnostic": truncate(rej.Diagnostic, 200),
					"rendered":   rej.Rendered,
				},
			})
			return
		}
		result.AddError(inst.Name, err.Error(), nil)
	}
}

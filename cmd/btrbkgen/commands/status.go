package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkeller/btrbkgen/internal/deploy"
	"github.com/mkeller/btrbkgen/internal/errors"
)

var statusRoot string

func init() {
	statusCmd.Flags().StringVar(&statusRoot, "root", "",
		"deployment root directory (default: from settings)")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare deployed state against the declaration",
	Long: `Status reads the deployment manifest, verifies the checksum of every
deployed file, and re-renders the declaration to detect instances whose
deployed configuration is out of date. Exits non-zero when any drift is
found, so it can gate automation.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	decl, err := loadDeclaration()
	if err != nil {
		return err
	}

	root := statusRoot
	if root == "" {
		root = settings.DeployRoot
	}
	d := &deploy.Deployer{Root: root}

	drifts, err := d.Status(decl)
	if err != nil {
		return errors.NewUserError(err, "run: btrbkgen deploy")
	}

	out := cmd.OutOrStdout()
	clean := true
	for _, drift := range drifts {
		if drift.State != deploy.StateOK {
			clean = false
		}
		fmt.Fprintf(out, "%s  %-12s %s\n", stateMark(drift.State), drift.Instance, drift.Path)
	}

	if clean {
		fmt.Fprintln(out, color.GreenString("✓ Deployment matches the declaration"))
		return nil
	}
	return errors.NewUserError(nil, "run: btrbkgen deploy")
}

func stateMark(state deploy.DriftState) string {
	switch state {
	case deploy.StateOK:
		return color.GreenString("%-10s", string(state))
	case deploy.StateModified, deploy.StateStale:
		return color.YellowString("%-10s", string(state))
	default:
		return color.RedString("%-10s", string(state))
	}
}

package commands

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkeller/btrbkgen/internal/deploy"
	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/logging"
)

var (
	deployRoot        string
	deployDryRun      bool
	deploySkipInvalid bool
	deploySkipCheck   bool
)

func init() {
	deployCmd.Flags().StringVar(&deployRoot, "root", "",
		"deployment root directory (default: from settings)")
	deployCmd.Flags().BoolVarP(&deployDryRun, "dry-run", "n", false,
		"validate and report without writing anything")
	deployCmd.Flags().BoolVar(&deploySkipInvalid, "skip-invalid", false,
		"deploy valid instances even when others fail validation")
	deployCmd.Flags().BoolVar(&deploySkipCheck, "skip-check", false,
		"skip the round-trip through the btrbk binary")
	rootCmd.AddCommand(deployCmd)
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy configs, systemd units and identity records",
	Long: `Deploy validates every declared instance and then writes the full set
of artifacts below the deployment root: one btrbk.conf, service and
timer per instance, the sysusers and tmpfiles records for the btrbk
service account, the sudo policy, and the filtered SSH authorized keys.

Validation runs first for the whole set. One invalid instance aborts
the run before any file is written, so a partial deployment is never
left behind; --skip-invalid relaxes this to deploy the valid subset.`,
	Example: `  # Deploy everything to /
  btrbkgen deploy

  # Stage into a directory for inspection
  btrbkgen deploy --root ./stage

  # See what would happen
  btrbkgen deploy --dry-run`,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())

	decl, err := loadDeclaration()
	if err != nil {
		return err
	}

	root := deployRoot
	if root == "" {
		root = settings.DeployRoot
	}

	d := &deploy.Deployer{
		Root:          root,
		BtrbkPath:     settings.BtrbkPath,
		BtrfsPath:     settings.BtrfsPath,
		SSHFilterPath: settings.SSHFilterPath,
		SkipInvalid:   deploySkipInvalid,
		DryRun:        deployDryRun,
		Logger:        logger,
	}
	if !deploySkipCheck {
		d.Checker = newChecker()
	}

	summary, err := d.Deploy(cmd.Context(), decl)
	if err != nil {
		return errors.NewUserError(err, "run: btrbkgen validate")
	}

	out := cmd.OutOrStdout()
	verb := "Deployed"
	if deployDryRun {
		verb = "Would deploy"
	}
	fmt.Fprintf(out, "%s %d instance(s) under %s\n", verb, len(summary.Instances), displayRoot(root))
	for _, dep := range summary.Instances {
		fmt.Fprintf(out, "  %s %s (%s)\n", color.GreenString("✓"), dep.Name, dep.Schedule)
	}

	if len(summary.Skipped) > 0 {
		names := make([]string, 0, len(summary.Skipped))
		for name := range summary.Skipped {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(out, "Skipped %d invalid instance(s):\n", len(names))
		for _, name := range names {
			fmt.Fprintf(out, "  %s %s: %v\n", color.RedString("✗"), name, summary.Skipped[name])
		}
	}

	return nil
}

func displayRoot(root string) string {
	if root == "" {
		return "/"
	}
	return root
}

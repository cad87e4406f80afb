package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkeller/btrbkgen/internal/btrbk"
	"github.com/mkeller/btrbkgen/internal/cli/prompt"
	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/instance"
	"github.com/mkeller/btrbkgen/internal/paths"
	"github.com/mkeller/btrbkgen/internal/systemd"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [instance]",
	Short: "Show every artifact one instance deploys",
	Long: `Show prints the rendered btrbk.conf together with the systemd service
and timer units for a single instance. Without an argument it opens a
fuzzy finder over the declared instances.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	decl, err := loadDeclaration()
	if err != nil {
		return err
	}

	var inst *instance.Instance
	if len(args) == 1 {
		inst, err = decl.Get(args[0])
		if err != nil {
			return errors.NewUserError(err, "run: btrbkgen instances")
		}
	} else {
		inst, err = prompt.SelectInstance(decl.Instances)
		if err != nil {
			if errors.Is(err, prompt.ErrSelectionCancelled) {
				return nil
			}
			return errors.NewUserError(err, "")
		}
	}

	root, err := btrbk.Build(inst)
	if err != nil {
		return errors.NewUserError(errors.Wrapf(err, "instance %q", inst.Name),
			"fix the declaration and re-run")
	}

	unit := systemd.InstanceUnit{
		Name:      inst.Name,
		Schedule:  inst.Schedule,
		BtrbkPath: settings.BtrbkPath,
		ConfPath:  paths.Under("", paths.EtcDir, inst.Name+".conf"),
	}
	service, err := systemd.Service(unit)
	if err != nil {
		return errors.NewSystemError(err, "")
	}
	timer, err := systemd.Timer(unit)
	if err != nil {
		return errors.NewSystemError(err, "")
	}

	out := cmd.OutOrStdout()
	header := color.New(color.Bold).FprintfFunc()

	header(out, "── %s ──\n", unit.ConfPath)
	fmt.Fprint(out, btrbk.Render(root))
	header(out, "\n── %s ──\n", paths.Under("", paths.UnitDir, systemd.ServiceName(inst.Name)))
	fmt.Fprint(out, service)
	header(out, "\n── %s ──\n", paths.Under("", paths.UnitDir, systemd.TimerName(inst.Name)))
	fmt.Fprint(out, timer)

	return nil
}

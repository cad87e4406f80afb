package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(instancesCmd)
}

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List declared instances",
	RunE: func(cmd *cobra.Command, args []string) error {
		decl, err := loadDeclaration()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSCHEDULE\tVOLUMES\tSUBVOLUMES\tTARGETS")
		for _, inst := range decl.Instances {
			subvols, targets := 0, 0
			for _, vol := range inst.Volumes {
				subvols += len(vol.Subvolumes)
				targets += len(vol.Targets)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
				inst.Name, inst.Schedule, len(inst.Volumes), subvols, targets)
		}
		return w.Flush()
	},
}

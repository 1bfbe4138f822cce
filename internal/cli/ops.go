package cli

import (
	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/present"
)

func newOpsCmd() *cobra.Command {
	var outputMode string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List the operations of the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, noHeaders)
			if err != nil {
				return err
			}
			return present.RenderOps(cmd.OutOrStdout(), getApp(cmd).Catalogue.Ops(), opts)
		},
	}
	addOutputFlags(cmd, &outputMode, &noHeaders)
	return cmd
}

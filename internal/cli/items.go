package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/internal/present"
	"github.com/mithrel/msgbus/pkg/bus"
)

func newItemsCmd() *cobra.Command {
	var outputMode string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "items [namespace|name]",
		Short: "List items, a namespace, or show one item",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeNamespaces(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := outputOptions(cmd, outputMode, noHeaders)
			if err != nil {
				return err
			}
			ch, peer, err := connect(cmd)
			if err != nil {
				return err
			}
			defer peer.Close()
			var filter *string
			if len(args) == 1 {
				filter = catalogue.Str(args[0])
			}
			res, err := bus.Request(cmd.Context(), ch, catalogue.GetItems, filter)
			if err != nil {
				return err
			}
			if res.Item != nil {
				return withPager(cmd, func(w io.Writer) error { return present.RenderItem(w, *res.Item, opts) })
			}
			return withPager(cmd, func(w io.Writer) error { return present.RenderItems(w, *res.List, opts) })
		},
	}
	addOutputFlags(cmd, &outputMode, &noHeaders)
	return cmd
}

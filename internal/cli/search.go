package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/internal/present"
	"github.com/mithrel/msgbus/pkg/bus"
)

func newSearchCmd() *cobra.Command {
	var limit int
	var outputMode string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Fuzzy search items by name or translation",
		Args:  cobra.MinimumNArgs(1),
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
			q := catalogue.SearchQuery{Term: strings.Join(args, " ")}
			if cmd.Flags().Changed("limit") {
				q.Limit = catalogue.Int(limit)
			}
			res, err := bus.Request(cmd.Context(), ch, catalogue.Search, q)
			if err != nil {
				return err
			}
			return present.RenderSuggestions(cmd.OutOrStdout(), res, opts)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default from search.default_limit)")
	addOutputFlags(cmd, &outputMode, &noHeaders)
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/pkg/bus"
)

// completeNamespaces asks the daemon for the known namespaces.
func completeNamespaces(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ch, peer, err := connect(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer peer.Close()
	nss, err := bus.Request(cmd.Context(), ch, catalogue.ListNamespaces, struct{}{})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return nss, cobra.ShellCompDirectiveNoFileComp
}

func registerNamespaceCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("namespace", completeNamespaces)
}

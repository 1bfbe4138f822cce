package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/ipc"
	"github.com/mithrel/msgbus/internal/ipc/transport"
	"github.com/mithrel/msgbus/internal/present"
	"github.com/mithrel/msgbus/pkg/bus"
)

// connect dials the daemon socket and returns a channel over it together
// with the underlying peer.
func connect(cmd *cobra.Command) (*bus.Channel, *transport.Peer, error) {
	app := getApp(cmd)
	sock, err := ipc.SocketPath(app.Cfg)
	if err != nil {
		return nil, nil, err
	}
	peer, err := transport.Dial(cmd.Context(), sock)
	if err != nil {
		return nil, nil, fmt.Errorf("daemon not reachable at %s: %w", sock, err)
	}
	return bus.New(peer, app.Catalogue, bus.WithLogger(app.Log), bus.WithContext(cmd.Context())), peer, nil
}

func addOutputFlags(cmd *cobra.Command, mode *string, noHeaders *bool) {
	cmd.Flags().StringVarP(mode, "output", "o", "auto", "output mode: auto|plain|pretty|json|ndjson")
	if noHeaders != nil {
		cmd.Flags().BoolVar(noHeaders, "no-headers", false, "omit column headers in plain output")
	}
}

func outputOptions(cmd *cobra.Command, mode string, noHeaders bool) (present.Options, error) {
	m, ok := present.ParseMode(strings.ToLower(mode), cmd.OutOrStdout())
	if !ok {
		return present.Options{}, fmt.Errorf("invalid --output: %s", mode)
	}
	return present.Options{Mode: m, JSONIndent: m == present.ModeJSON, Headers: !noHeaders}, nil
}

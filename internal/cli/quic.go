package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/daemon"
	qnet "github.com/mithrel/msgbus/internal/quicnet"
	"github.com/mithrel/msgbus/pkg/bus"
)

func newQuicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quic",
		Short: "Serve or reach the bus over QUIC",
	}

	// quic serve --addr :7845
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Host the operations on QUIC only",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if addr == "" {
				addr = app.Cfg.GetString("quic.addr")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting QUIC server on %s\n", addr)
			return daemon.ServeQUIC(cmd.Context(), app, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (host:port), default quic.addr")

	// quic ping <addr>
	var insecure bool
	var timeout time.Duration
	ping := &cobra.Command{
		Use:   "ping <addr>",
		Short: "Ping a QUIC host and expect pong",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			host, _, err := net.SplitHostPort(args[0])
			if err != nil {
				return err
			}
			dctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			conn, err := qnet.Dial(dctx, args[0], qnet.ClientTLS(host, insecure))
			if err != nil {
				return err
			}
			defer conn.Close()
			return ping(cmd, bus.New(conn, app.Catalogue, bus.WithLogger(app.Log)), timeout)
		},
	}
	ping.Flags().BoolVar(&insecure, "insecure", false, "skip certificate verification (self-signed hosts)")
	ping.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "give up after this long")

	cmd.AddCommand(serve, ping)
	return cmd
}

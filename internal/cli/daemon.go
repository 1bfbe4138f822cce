package cli

import (
	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/daemon"
)

func newDaemonCmd() *cobra.Command {
	var socket string
	var withQUIC bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Host the operation catalogue for foreground clients",
		Long: "Run the background context: answer every catalogue request on the unix socket " +
			"(and QUIC when quic.enabled is set), announce items-changed to connected clients " +
			"and serve /healthz on http_addr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if cmd.Flags().Changed("socket") {
				app.Cfg.Set("socket_path", socket)
			}
			if cmd.Flags().Changed("quic") {
				app.Cfg.Set("quic.enabled", withQUIC)
			}
			app.Log.Info().
				Str("socket", app.Cfg.GetString("socket_path")).
				Bool("quic", app.Cfg.GetBool("quic.enabled")).
				Bool("auto_update", app.Cfg.GetBool("features.auto_update")).
				Msg("starting daemon")
			return daemon.Run(cmd.Context(), app)
		},
	}
	cmd.Flags().StringVar(&socket, "socket", "", "unix socket path (overrides socket_path)")
	cmd.Flags().BoolVar(&withQUIC, "quic", false, "also serve on quic.addr (overrides quic.enabled)")
	return cmd
}

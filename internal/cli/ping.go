package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/pkg/bus"
)

func newPingCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, peer, err := connect(cmd)
			if err != nil {
				return err
			}
			defer peer.Close()
			return ping(cmd, ch, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "give up after this long")
	return cmd
}

func ping(cmd *cobra.Command, ch *bus.Channel, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	start := time.Now()
	ok, err := bus.Request(ctx, ch, catalogue.Ping, struct{}{})
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("daemon answered ping with false")
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pong in %s\n", time.Since(start).Round(time.Microsecond))
	return nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print items-changed broadcasts until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, peer, err := connect(cmd)
			if err != nil {
				return err
			}
			defer peer.Close()
			out := cmd.OutOrStdout()
			err = bus.OnRequest(ch, catalogue.ItemsChanged, func(_ context.Context, info api.ItemListInfo) (struct{}, error) {
				_, _ = fmt.Fprintf(out, "%s\titems-changed\tcount=%d\tsha=%s\n", time.Now().Format(time.RFC3339), info.Count, info.Sha)
				return struct{}{}, nil
			})
			if err != nil {
				return err
			}
			// Confirm the daemon is there before waiting.
			if _, err := bus.Request(cmd.Context(), ch, catalogue.Ping, struct{}{}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "watching; interrupt to stop")
			select {
			case <-cmd.Context().Done():
				return nil
			case <-peer.Done():
				return fmt.Errorf("daemon went away: %w", bus.ErrPortClosed)
			}
		},
	}
	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/present"
)

// checkTag rejects tags the catalogue does not define before dialing.
func checkTag(cmd *cobra.Command, tag string) error {
	if !getApp(cmd).Catalogue.Has(tag) {
		return fmt.Errorf("unknown operation %q (see busctl ops)", tag)
	}
	return nil
}

func payloadArg(args []string) json.RawMessage {
	if len(args) < 2 {
		return nil
	}
	return json.RawMessage(args[1])
}

func newRequestCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "request <tag> [json]",
		Short: "Send a request and print the response",
		Long:  "Send a request for tag with an optional JSON payload. The payload and the response are checked against the catalogue.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkTag(cmd, args[0]); err != nil {
				return err
			}
			opts, err := outputOptions(cmd, outputMode, false)
			if err != nil {
				return err
			}
			ch, peer, err := connect(cmd)
			if err != nil {
				return err
			}
			defer peer.Close()
			raw, err := ch.Call(cmd.Context(), args[0], payloadArg(args))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return present.RenderRaw(cmd.OutOrStdout(), raw, opts)
		},
	}
	addOutputFlags(cmd, &outputMode, nil)
	return cmd
}

func newBroadcastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcast <tag> [json]",
		Short: "Send a message without waiting for an answer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkTag(cmd, args[0]); err != nil {
				return err
			}
			ch, peer, err := connect(cmd)
			if err != nil {
				return err
			}
			defer peer.Close()
			return ch.Notify(args[0], payloadArg(args))
		},
	}
	return cmd
}

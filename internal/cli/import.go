package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/msgbus/internal/catalogue"
	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

func newImportCmd() *cobra.Command {
	var file string
	var namespace string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import items from JSON (array or NDJSON) via update-items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) == "" {
				return fmt.Errorf("--file is required")
			}
			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			items, err := readItems(in)
			if err != nil {
				return err
			}
			for i := range items {
				if items[i].Namespace == "" {
					items[i].Namespace = namespace
				}
			}

			ch, peer, err := connect(cmd)
			if err != nil {
				return err
			}
			defer peer.Close()
			info, err := bus.Request(cmd.Context(), ch, catalogue.UpdateItems, items)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported: %d\nTotal: %d\nSha: %s\n", len(items), info.Count, info.Sha)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "input JSON file (array or NDJSON), - for stdin")
	cmd.Flags().StringVar(&namespace, "namespace", "default", "namespace for items that name none")
	registerNamespaceCompletion(cmd)
	return cmd
}

// readItems decodes a JSON array or a stream of JSON objects.
func readItems(r io.Reader) ([]api.Item, error) {
	br := bufio.NewReader(r)
	first, err := peekFirstNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	dec := json.NewDecoder(br)
	dec.DisallowUnknownFields()
	if first == '[' {
		var arr []api.Item
		if err := dec.Decode(&arr); err != nil {
			return nil, err
		}
		return arr, nil
	}
	var out []api.Item
	for {
		var it api.Item
		if err := dec.Decode(&it); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, it)
	}
}

func peekFirstNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		// put it back for the decoder
		if err := r.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

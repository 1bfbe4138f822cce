package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func newTab(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func WritePlainOps(w io.Writer, ops []bus.OpInfo, headers bool) error {
	tw := newTab(w)
	if headers {
		_, _ = io.WriteString(tw, "tag\trequest\tresponse\tnullable\n")
	}
	for _, o := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", o.Tag, o.Request, o.Response, o.Nullable)
	}
	return tw.Flush()
}

func WritePlainSuggestions(w io.Writer, s []api.Suggestion, headers bool) error {
	tw := newTab(w)
	if headers {
		_, _ = io.WriteString(tw, "namespace\tname\ttranslation\tmatched\tscore\n")
	}
	for _, sg := range s {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			esc(sg.Item.Namespace), esc(sg.Item.Name), esc(sg.Item.Translation), esc(sg.Matched), sg.Score)
	}
	return tw.Flush()
}

// WritePlainItems writes namespace, name and translation columns.
func WritePlainItems(w io.Writer, items []api.Item, headers bool) error {
	tw := newTab(w)
	if headers {
		_, _ = io.WriteString(tw, "namespace\tname\ttranslation\n")
	}
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", esc(it.Namespace), esc(it.Name), esc(it.Translation))
	}
	return tw.Flush()
}

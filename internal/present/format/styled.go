package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

var (
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// WriteStyledOps prints the catalogue with aligned, coloured columns.
func WriteStyledOps(w io.Writer, ops []bus.OpInfo) error {
	tagW, reqW := len("tag"), len("request")
	for _, o := range ops {
		tagW = max(tagW, len(o.Tag))
		reqW = max(reqW, len(o.Request)+1)
	}
	var b strings.Builder
	b.WriteString(headStyle.Render(pad("tag", tagW)+"  "+pad("request", reqW)+"  response") + "\n")
	for _, o := range ops {
		req := o.Request
		if o.Nullable {
			req += "?"
		}
		b.WriteString(tagStyle.Render(pad(o.Tag, tagW)) + "  " + pad(req, reqW) + "  " + o.Response + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteStyledSuggestions prints ranked suggestions, the matched text faint.
func WriteStyledSuggestions(w io.Writer, s []api.Suggestion) error {
	if len(s) == 0 {
		_, err := io.WriteString(w, dimStyle.Render("no matches")+"\n")
		return err
	}
	var b strings.Builder
	for i, sg := range s {
		fmt.Fprintf(&b, "%2d. %s %s",
			i+1, tagStyle.Render(sg.Item.Namespace+"/"+sg.Item.Name), sg.Item.Translation)
		if sg.Matched != sg.Item.Name {
			b.WriteString(" " + dimStyle.Render("("+sg.Matched+")"))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Package present renders bus results for the terminal.
package present

import (
	"encoding/json"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/mithrel/msgbus/internal/present/format"
	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
}

// ParseMode parses "plain", "pretty", "json", "ndjson" or "auto". Auto
// picks pretty for terminals and plain otherwise.
func ParseMode(s string, w io.Writer) (Mode, bool) {
	switch s {
	case "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "", "auto":
		if IsTerminal(w) {
			return ModePretty, true
		}
		return ModePlain, true
	default:
		return ModePlain, false
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RenderOps renders catalogue entries.
func RenderOps(w io.Writer, ops []bus.OpInfo, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, ops, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, ops)
	case ModePretty:
		return format.WriteStyledOps(w, ops)
	default:
		return format.WritePlainOps(w, ops, opts.Headers)
	}
}

// RenderSuggestions renders search results in rank order.
func RenderSuggestions(w io.Writer, s []api.Suggestion, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, s, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, s)
	case ModePretty:
		return format.WriteStyledSuggestions(w, s)
	default:
		return format.WritePlainSuggestions(w, s, opts.Headers)
	}
}

// RenderItems renders an item list.
func RenderItems(w io.Writer, l api.ItemList, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, l, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, l.Items)
	default:
		return format.WritePlainItems(w, l.Items, opts.Headers)
	}
}

// RenderItem renders a single item.
func RenderItem(w io.Writer, it api.Item, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, it, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSON(w, []api.Item{it})
	case ModePretty:
		return format.WritePrettyItem(w, it)
	default:
		return format.WritePlainItems(w, []api.Item{it}, opts.Headers)
	}
}

// RenderRaw writes an untyped payload, indenting unless ndjson is asked for.
func RenderRaw(w io.Writer, raw json.RawMessage, opts Options) error {
	return format.WriteRaw(w, raw, opts.Mode != ModeNDJSON)
}

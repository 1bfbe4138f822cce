package format

import (
	"bytes"
	"encoding/json"
	"io"
)

func WriteJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteNDJSON writes one JSON object per line.
func WriteNDJSON[T any](w io.Writer, rows []T) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteRaw writes an already encoded payload. An absent payload prints null.
func WriteRaw(w io.Writer, raw json.RawMessage, indent bool) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("null")
	}
	var buf bytes.Buffer
	if indent {
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
	} else if err := json.Compact(&buf, raw); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

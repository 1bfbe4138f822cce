package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/mithrel/msgbus/pkg/api"
)

// WritePrettyItem renders a single item with markdown formatting using glamour.
func WritePrettyItem(w io.Writer, it api.Item) error {
	updated := "never"
	if !it.UpdatedAt.IsZero() {
		updated = it.UpdatedAt.Local().Format(time.RFC3339)
	}
	translation := it.Translation
	if translation == "" {
		translation = "_none_"
	}

	md := fmt.Sprintf(`# %s

> **Namespace:** %s | **Updated:** %s
>
> **Translation:** %s

---

%s
`, it.Name, it.Namespace, updated, translation, strings.TrimSpace(it.Intro))

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}

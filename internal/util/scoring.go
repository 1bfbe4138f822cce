package util

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mithrel/msgbus/pkg/api"
)

type candidate struct {
	item api.Item
	text string
}

type candidates []candidate

func (c candidates) String(i int) string { return c[i].text }
func (c candidates) Len() int            { return len(c) }

// ScoreSuggestions fuzzy-matches term against item names and translations
// and returns at most limit suggestions, best first. An item appears once,
// under its best matching string. limit <= 0 means no cap.
func ScoreSuggestions(term string, items []api.Item, limit int) []api.Suggestion {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	src := make(candidates, 0, len(items)*2)
	for _, it := range items {
		src = append(src, candidate{item: it, text: it.Name})
		if it.Translation != "" {
			src = append(src, candidate{item: it, text: it.Translation})
		}
	}
	matches := fuzzy.FindFrom(term, src)
	out := make([]api.Suggestion, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		c := src[m.Index]
		if _, ok := seen[c.item.Key()]; ok {
			continue
		}
		seen[c.item.Key()] = struct{}{}
		out = append(out, api.Suggestion{Item: c.item, Matched: m.Str, Score: m.Score})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

package api

import (
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"
)

// HashItems returns a deterministic BLAKE3 hash of the item contents.
// Order of the input does not matter; timestamps are not part of the hash.
func HashItems(items []Item) string {
	sorted := append([]Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	h := blake3.New()
	for _, it := range sorted {
		// NUL separated fields, one extra NUL per item
		for _, f := range []string{it.Namespace, it.Name, it.Translation, it.Intro} {
			h.Write([]byte(f))
			h.Write([]byte{0})
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewItemList builds an ItemList with its hash.
func NewItemList(items []Item) ItemList {
	if items == nil {
		items = []Item{}
	}
	return ItemList{Sha: HashItems(items), Items: items}
}

// Info summarizes l.
func (l ItemList) Info() ItemListInfo {
	return ItemListInfo{Sha: l.Sha, Count: len(l.Items)}
}

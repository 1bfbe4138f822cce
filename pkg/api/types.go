package api

import "time"

// Item is one entry of the item database served by the background context.
type Item struct {
	Namespace   string    `json:"namespace"`
	Name        string    `json:"name"`
	Translation string    `json:"translation,omitempty"`
	Intro       string    `json:"intro,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Key identifies an item across namespaces.
func (i Item) Key() string { return i.Namespace + ":" + i.Name }

// ItemList is the full item set with a content hash.
type ItemList struct {
	Sha   string `json:"sha"`
	Items []Item `json:"items"`
}

// ItemListInfo summarizes an ItemList without the items.
type ItemListInfo struct {
	Sha   string `json:"sha"`
	Count int    `json:"count"`
}

// Suggestion is one search hit. Matched is the string that matched the
// term, either the name or the translation.
type Suggestion struct {
	Item    Item   `json:"item"`
	Matched string `json:"matched"`
	Score   int    `json:"score"`
}

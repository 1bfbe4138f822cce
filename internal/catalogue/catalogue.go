// Package catalogue is the operation set spoken between the background
// daemon and its foreground clients.
package catalogue

import (
	"errors"
	"fmt"

	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

// Default holds every operation below.
var Default = bus.NewCatalogue()

var (
	GetItems      = bus.Define[*string, ItemsResult](Default, "get-items")
	GetConfig     = bus.Define[*string, ConfigResult](Default, "get-config")
	ToggleFeature = bus.Define[bool, bool](Default, "toggle-feature")
	Search        = bus.Define[SearchQuery, []api.Suggestion](Default, "search")
	Ping          = bus.Define[struct{}, bool](Default, "ping")
	UpdateItems   = bus.Define[[]api.Item, api.ItemListInfo](Default, "update-items")
	// ListNamespaces answers the distinct item namespaces, sorted.
	ListNamespaces = bus.Define[struct{}, []string](Default, "list-namespaces")
	// ItemsChanged is broadcast by the daemon after the item set changed.
	ItemsChanged = bus.Define[api.ItemListInfo, struct{}](Default, "items-changed")
)

// MaxSearchLimit caps SearchQuery.Limit.
const MaxSearchLimit = 100

// ItemsResult is either the whole (or namespace filtered) list or a single
// item.
type ItemsResult struct {
	List *api.ItemList `json:"list,omitempty"`
	Item *api.Item     `json:"item,omitempty"`
}

func (r ItemsResult) Validate() error {
	if (r.List == nil) == (r.Item == nil) {
		return errors.New("exactly one of list and item must be set")
	}
	return nil
}

// ConfigResult is either a settings map or a single value. An empty map
// does not survive encoding, so both unset means an empty map.
type ConfigResult struct {
	Values map[string]string `json:"values,omitempty"`
	Value  *string           `json:"value,omitempty"`
}

func (r ConfigResult) Validate() error {
	if r.Values != nil && r.Value != nil {
		return errors.New("values and value are exclusive")
	}
	return nil
}

type SearchQuery struct {
	Term  string `json:"term"`
	Limit *int   `json:"limit,omitempty"`
}

func (q SearchQuery) Validate() error {
	if q.Term == "" {
		return errors.New("term is required")
	}
	if q.Limit != nil && (*q.Limit < 0 || *q.Limit > MaxSearchLimit) {
		return fmt.Errorf("limit must be within 0..%d", MaxSearchLimit)
	}
	return nil
}

// Str is a convenience for optional string payloads.
func Str(s string) *string { return &s }

// Int is a convenience for optional int payloads.
func Int(n int) *int { return &n }

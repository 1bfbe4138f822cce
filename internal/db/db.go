package db

import (
	"context"
	"errors"
	"strings"

	"github.com/mithrel/msgbus/pkg/api"
)

// Store holds the item database served to foreground contexts.
type Store interface {
	// ListItems returns items sorted by namespace and name. An empty
	// namespace lists everything.
	ListItems(ctx context.Context, namespace string) ([]api.Item, error)
	// LookupItem returns the first item named name in namespace order.
	LookupItem(ctx context.Context, name string) (api.Item, error)
	// PutItems upserts items keyed by namespace and name.
	PutItems(ctx context.Context, items []api.Item) error
	Namespaces(ctx context.Context) ([]string, error)
	Close() error
}

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidItem = errors.New("item needs namespace and name")
)

// Open returns a Store for url: "memory", "sqlite://<path>" or a bare path.
func Open(ctx context.Context, url string) (Store, error) {
	if strings.TrimSpace(url) == "" || url == "memory" {
		return newMemStore(), nil
	}
	return openSQLite(ctx, url)
}

// normalizeItems trims keys and lowercases names, dropping invalid items
// with an error.
func normalizeItems(in []api.Item) ([]api.Item, error) {
	out := make([]api.Item, 0, len(in))
	for _, it := range in {
		it.Namespace = strings.ToLower(strings.TrimSpace(it.Namespace))
		it.Name = strings.ToLower(strings.TrimSpace(it.Name))
		if it.Namespace == "" || it.Name == "" {
			return nil, ErrInvalidItem
		}
		out = append(out, it)
	}
	return out, nil
}

package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mithrel/msgbus/pkg/api"
)

type memStore struct {
	mu    sync.RWMutex
	byKey map[string]api.Item
}

func newMemStore() *memStore {
	return &memStore{byKey: make(map[string]api.Item)}
}

func (m *memStore) ListItems(ctx context.Context, namespace string) ([]api.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.Item, 0, len(m.byKey))
	for _, it := range m.byKey {
		if namespace == "" || it.Namespace == namespace {
			out = append(out, it)
		}
	}
	sortItems(out)
	return out, nil
}

func (m *memStore) LookupItem(ctx context.Context, name string) (api.Item, error) {
	items, _ := m.ListItems(ctx, "")
	for _, it := range items {
		if it.Name == name {
			return it, nil
		}
	}
	return api.Item{}, ErrNotFound
}

func (m *memStore) PutItems(ctx context.Context, items []api.Item) error {
	items, err := normalizeItems(items)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = now
		}
		m.byKey[it.Key()] = it
	}
	return nil
}

func (m *memStore) Namespaces(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, it := range m.byKey {
		if _, ok := seen[it.Namespace]; ok {
			continue
		}
		seen[it.Namespace] = struct{}{}
		out = append(out, it.Namespace)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) Close() error { return nil }

func sortItems(items []api.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Namespace != items[j].Namespace {
			return items[i].Namespace < items[j].Namespace
		}
		return items[i].Name < items[j].Name
	})
}

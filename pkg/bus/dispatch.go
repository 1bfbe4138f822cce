package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// routeFunc handles one raw request payload and always yields an Outcome.
type routeFunc func(ctx context.Context, payload json.RawMessage) Outcome

// DispatchTable maps operation tags to handlers for one channel. A tag can
// be registered once.
type DispatchTable struct {
	mu     sync.RWMutex
	routes map[string]routeFunc
}

func newDispatchTable() *DispatchTable {
	return &DispatchTable{routes: make(map[string]routeFunc)}
}

func (d *DispatchTable) register(tag string, fn routeFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.routes[tag]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateHandler, tag)
	}
	d.routes[tag] = fn
	return nil
}

func (d *DispatchTable) lookup(tag string) (routeFunc, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn, ok := d.routes[tag]
	return fn, ok
}

// Tags returns the registered tags, sorted.
func (d *DispatchTable) Tags() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.routes))
	for tag := range d.routes {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

package transport

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/mithrel/msgbus/pkg/bus"
)

// Pending tracks exchanges awaiting an answer, keyed by correlation id.
// Each id settles at most once even if the peer answers twice.
type Pending struct {
	mu    sync.Mutex
	seq   atomic.Uint64
	items map[string]bus.ReplyFunc
}

func NewPending() *Pending {
	return &Pending{items: make(map[string]bus.ReplyFunc)}
}

// Add stores onReply under a fresh id.
func (p *Pending) Add(onReply bus.ReplyFunc) string {
	id := strconv.FormatUint(p.seq.Add(1), 36)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[id] = onReply
	return id
}

// Take removes and returns the callback for id.
func (p *Pending) Take(id string) (bus.ReplyFunc, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn, ok := p.items[id]
	if ok {
		delete(p.items, id)
	}
	return fn, ok
}

// Len returns the number of outstanding exchanges.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// FailAll settles every outstanding exchange with err.
func (p *Pending) FailAll(err error) {
	p.mu.Lock()
	items := p.items
	p.items = make(map[string]bus.ReplyFunc)
	p.mu.Unlock()
	for _, fn := range items {
		fn(nil, err)
	}
}

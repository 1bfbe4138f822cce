package transport

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mithrel/msgbus/pkg/bus"
)

// Listener abstracts how a server obtains a net.Listener (unix, tcp, etc.).
// This allows reusing the same Server implementation with different endpoints.
type Listener interface {
	Listen(ctx context.Context) (net.Listener, error)
}

// Link is one connected peer a fan-out server can send to.
type Link interface {
	Send(env bus.Envelope, onReply bus.ReplyFunc)
}

// Receivers is a concurrency-safe receiver list shared by every connection
// of one process.
type Receivers struct {
	mu   sync.RWMutex
	list []bus.Receiver
}

func (r *Receivers) RegisterReceiver(fn bus.Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, fn)
}

func (r *Receivers) snapshot() []bus.Receiver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]bus.Receiver(nil), r.list...)
}

// Deliver runs env through rs. The first reply settles onReply. When no
// receiver kept the reply path open and none replied while being called,
// onReply gets bus.ErrNoReceiver.
func Deliver(rs []bus.Receiver, env bus.Envelope, onReply bus.ReplyFunc) {
	var once sync.Once
	var replied atomic.Bool
	respond := func(out bus.Outcome) {
		once.Do(func() {
			replied.Store(true)
			onReply(&out, nil)
		})
	}
	keep := false
	for _, r := range rs {
		if r(env, respond) {
			keep = true
		}
	}
	if !keep && !replied.Load() {
		once.Do(func() { onReply(nil, bus.ErrNoReceiver) })
	}
}

// Deliver runs env through the registered receivers.
func (r *Receivers) Deliver(env bus.Envelope, onReply bus.ReplyFunc) {
	Deliver(r.snapshot(), env, onReply)
}

// Hub fans a Send out to every attached link. The first answer that is not
// an absence wins; when every link reports absence, or none is attached, the
// sender gets bus.ErrNoReceiver.
type Hub struct {
	Receivers
	mu    sync.Mutex
	links map[Link]struct{}
}

func NewHub() *Hub { return &Hub{links: make(map[Link]struct{})} }

// Attach adds l and returns a function that detaches it.
func (h *Hub) Attach(l Link) func() {
	h.mu.Lock()
	h.links[l] = struct{}{}
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.links, l)
		h.mu.Unlock()
	}
}

// Len returns the number of attached links.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.links)
}

func (h *Hub) Send(env bus.Envelope, onReply bus.ReplyFunc) {
	h.mu.Lock()
	links := make([]Link, 0, len(h.links))
	for l := range h.links {
		links = append(links, l)
	}
	h.mu.Unlock()
	if len(links) == 0 {
		onReply(nil, bus.ErrNoReceiver)
		return
	}
	var (
		mu      sync.Mutex
		settled bool
		absent  int
		lastErr error
	)
	for _, l := range links {
		l.Send(env, func(out *bus.Outcome, err error) {
			mu.Lock()
			if settled {
				mu.Unlock()
				return
			}
			if out == nil {
				absent++
				if lastErr == nil || err != bus.ErrNoReceiver {
					lastErr = err
				}
				if absent < len(links) {
					mu.Unlock()
					return
				}
			}
			settled = true
			mu.Unlock()
			if out == nil {
				onReply(nil, lastErr)
				return
			}
			onReply(out, nil)
		})
	}
}

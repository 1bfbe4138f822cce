package transport

import (
	"sync"
	"sync/atomic"

	"github.com/mithrel/msgbus/pkg/bus"
)

// Local connects contexts living in one process. A message sent from one
// endpoint reaches the receivers of every other open endpoint.
type Local struct {
	mu        sync.Mutex
	endpoints []*Endpoint
}

func NewLocal() *Local { return &Local{} }

// Endpoint opens a new context on l.
func (l *Local) Endpoint() *Endpoint {
	e := &Endpoint{local: l, held: NewPending()}
	l.mu.Lock()
	l.endpoints = append(l.endpoints, e)
	l.mu.Unlock()
	return e
}

func (l *Local) others(self *Endpoint) []*Endpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Endpoint, 0, len(l.endpoints))
	for _, e := range l.endpoints {
		if e != self {
			out = append(out, e)
		}
	}
	return out
}

func (l *Local) remove(self *Endpoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.endpoints {
		if e == self {
			l.endpoints = append(l.endpoints[:i], l.endpoints[i+1:]...)
			return
		}
	}
}

// Endpoint is one context's view of a Local transport. It implements
// bus.Transport.
type Endpoint struct {
	Receivers
	local  *Local
	held   *Pending
	sendMu sync.Mutex
	closed atomic.Bool
}

type hold struct {
	ep *Endpoint
	id string
}

type localExchange struct {
	once    sync.Once
	onReply bus.ReplyFunc
	mu      sync.Mutex
	done    bool
	holds   []hold
}

// track records that ep kept the reply path open, so closing ep fails the
// exchange. Nothing is recorded once the exchange settled.
func (x *localExchange) track(ep *Endpoint) {
	x.mu.Lock()
	if x.done {
		x.mu.Unlock()
		return
	}
	for _, h := range x.holds {
		if h.ep == ep {
			x.mu.Unlock()
			return
		}
	}
	x.holds = append(x.holds, hold{ep: ep, id: ep.held.Add(x.settle)})
	x.mu.Unlock()
	if ep.closed.Load() {
		x.settle(nil, bus.ErrPortClosed)
	}
}

func (x *localExchange) settle(out *bus.Outcome, err error) {
	x.once.Do(func() {
		x.mu.Lock()
		x.done = true
		holds := x.holds
		x.mu.Unlock()
		for _, h := range holds {
			h.ep.held.Take(h.id)
		}
		x.onReply(out, err)
	})
}

// Send delivers env to the other endpoints. Sends from one endpoint are
// delivered in submission order. Only endpoints whose receivers keep the
// reply path open hold the exchange.
func (e *Endpoint) Send(env bus.Envelope, onReply bus.ReplyFunc) {
	if e.closed.Load() {
		onReply(nil, bus.ErrPortClosed)
		return
	}
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	x := &localExchange{onReply: onReply}
	var rs []bus.Receiver
	for _, p := range e.local.others(e) {
		for _, r := range p.snapshot() {
			rs = append(rs, func(env bus.Envelope, reply bus.Responder) bool {
				if !r(env, reply) {
					return false
				}
				x.track(p)
				return true
			})
		}
	}
	Deliver(rs, env, x.settle)
}

// Held returns the number of exchanges this endpoint still owes an answer.
func (e *Endpoint) Held() int { return e.held.Len() }

// Close tears the context down. Exchanges it still holds settle with
// bus.ErrPortClosed and it stops receiving.
func (e *Endpoint) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.local.remove(e)
	e.held.FailAll(bus.ErrPortClosed)
	return nil
}

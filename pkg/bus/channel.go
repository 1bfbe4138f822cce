package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// FaultSink observes faults that no caller is waiting for, i.e. faults
// answered to a Broadcast.
type FaultSink func(tag string, err error)

// Handler serves one operation. It may block; each inbound request runs in
// its own goroutine.
type Handler[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Channel is the typed request/response and broadcast layer over a
// Transport.
type Channel struct {
	t      Transport
	cat    *Catalogue
	table  *DispatchTable
	log    zerolog.Logger
	faults FaultSink
	ctx    context.Context
}

type Option func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Channel) { c.log = l }
}

// WithFaultSink replaces the default sink, which logs broadcast faults.
func WithFaultSink(fs FaultSink) Option {
	return func(c *Channel) { c.faults = fs }
}

// WithContext sets the base context handed to handlers.
func WithContext(ctx context.Context) Option {
	return func(c *Channel) { c.ctx = ctx }
}

// New builds a channel and registers its receiver with t.
func New(t Transport, cat *Catalogue, opts ...Option) *Channel {
	c := &Channel{
		t:     t,
		cat:   cat,
		table: newDispatchTable(),
		log:   zerolog.Nop(),
		ctx:   context.Background(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.faults == nil {
		c.faults = func(tag string, err error) {
			c.log.Error().Err(err).Str("tag", tag).Msg("unhandled broadcast fault")
		}
	}
	t.RegisterReceiver(c.receive)
	return c
}

// Catalogue returns the catalogue the channel enforces.
func (c *Channel) Catalogue() *Catalogue { return c.cat }

// Handlers returns the dispatch table.
func (c *Channel) Handlers() *DispatchTable { return c.table }

type settlement struct {
	out     *Outcome
	lastErr error
}

// exchange submits env and waits for its single settlement.
func (c *Channel) exchange(ctx context.Context, env Envelope) (json.RawMessage, error) {
	done := make(chan settlement, 1)
	var once sync.Once
	c.t.Send(env, func(out *Outcome, lastErr error) {
		once.Do(func() { done <- settlement{out: out, lastErr: lastErr} })
	})
	select {
	case s := <-done:
		switch {
		case s.out == nil:
			if s.lastErr == nil {
				return nil, ErrNoReceiver
			}
			return nil, s.lastErr
		case s.out.Fault != nil:
			return nil, s.out.Fault
		}
		return s.out.Payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request sends req for op and waits for the response. Handler faults are
// returned as is; a missing response yields the transport's error.
func Request[Req, Resp any](ctx context.Context, c *Channel, op Op[Req, Resp], req Req) (Resp, error) {
	var zero Resp
	if err := checkOp(c.cat, op); err != nil {
		return zero, err
	}
	payload, err := encode(op.tag, "request", req)
	if err != nil {
		return zero, err
	}
	raw, err := c.exchange(ctx, Envelope{Tag: op.tag, Payload: payload})
	if err != nil {
		return zero, err
	}
	return decode[Resp](op.tag, "response", raw)
}

// Broadcast sends req for op without waiting. Only local encoding problems
// are returned; a fault answered by a receiver goes to the fault sink.
func Broadcast[Req, Resp any](c *Channel, op Op[Req, Resp], req Req) error {
	if err := checkOp(c.cat, op); err != nil {
		return err
	}
	payload, err := encode(op.tag, "request", req)
	if err != nil {
		return err
	}
	c.broadcast(Envelope{Tag: op.tag, Payload: payload})
	return nil
}

func (c *Channel) broadcast(env Envelope) {
	c.t.Send(env, func(out *Outcome, lastErr error) {
		if out == nil {
			c.log.Debug().Err(lastErr).Str("tag", env.Tag).Msg("broadcast not received")
			return
		}
		if out.Fault != nil {
			c.faults(env.Tag, out.Fault)
		}
	})
}

// OnRequest registers h as the handler for op on this channel.
func OnRequest[Req, Resp any](c *Channel, op Op[Req, Resp], h Handler[Req, Resp]) error {
	if err := checkOp(c.cat, op); err != nil {
		return err
	}
	tag := op.tag
	err := c.table.register(tag, func(ctx context.Context, payload json.RawMessage) Outcome {
		req, err := decode[Req](tag, "request", payload)
		if err != nil {
			return Fail(err)
		}
		resp, err := h(ctx, req)
		if err != nil {
			return Fail(err)
		}
		raw, err := encode(tag, "response", resp)
		if err != nil {
			return Fail(err)
		}
		return Succeed(raw)
	})
	if err != nil {
		return err
	}
	c.log.Debug().Str("tag", tag).Msg("registered handler")
	return nil
}

// Call is the untyped form of Request. Payloads are checked against the
// catalogue types in both directions.
func (c *Channel) Call(ctx context.Context, tag string, payload json.RawMessage) (json.RawMessage, error) {
	e, err := c.cat.lookup(tag)
	if err != nil {
		return nil, err
	}
	if err := e.checkReq(payload); err != nil {
		return nil, err
	}
	raw, err := c.exchange(ctx, Envelope{Tag: tag, Payload: payload})
	if err != nil {
		return nil, err
	}
	if err := e.checkResp(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Notify is the untyped form of Broadcast.
func (c *Channel) Notify(tag string, payload json.RawMessage) error {
	e, err := c.cat.lookup(tag)
	if err != nil {
		return err
	}
	if err := e.checkReq(payload); err != nil {
		return err
	}
	c.broadcast(Envelope{Tag: tag, Payload: payload})
	return nil
}

// receive is the single transport receiver of the channel. Envelopes for
// tags without a handler are left to other receivers.
func (c *Channel) receive(env Envelope, reply Responder) bool {
	fn, ok := c.table.lookup(env.Tag)
	if !ok {
		return false
	}
	go func() {
		reply(c.invoke(env.Tag, fn, env.Payload))
	}()
	return true
}

func (c *Channel) invoke(tag string, fn routeFunc, payload json.RawMessage) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Str("tag", tag).Interface("panic", r).Msg("handler panicked")
			out = Fail(&PanicError{Tag: tag, Value: r})
		}
	}()
	return fn(c.ctx, payload)
}

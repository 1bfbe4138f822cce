package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/msgbus/pkg/bus"
)

type recorder struct {
	mu    sync.Mutex
	calls int
	out   *bus.Outcome
	err   error
}

func (r *recorder) reply(out *bus.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.out, r.err = out, err
}

func TestDeliverFirstReplyWins(t *testing.T) {
	var rec recorder
	Deliver([]bus.Receiver{
		func(env bus.Envelope, reply bus.Responder) bool { return false },
		func(env bus.Envelope, reply bus.Responder) bool {
			reply(bus.Succeed([]byte(`1`)))
			return true
		},
		func(env bus.Envelope, reply bus.Responder) bool {
			reply(bus.Succeed([]byte(`2`)))
			return true
		},
	}, bus.Envelope{Tag: "t"}, rec.reply)

	assert.Equal(t, 1, rec.calls)
	require.NotNil(t, rec.out)
	assert.Equal(t, "1", string(rec.out.Payload))
}

func TestDeliverNobodyKeepsReply(t *testing.T) {
	var rec recorder
	Deliver([]bus.Receiver{
		func(bus.Envelope, bus.Responder) bool { return false },
	}, bus.Envelope{Tag: "t"}, rec.reply)
	assert.Equal(t, 1, rec.calls)
	assert.Nil(t, rec.out)
	assert.ErrorIs(t, rec.err, bus.ErrNoReceiver)

	var empty recorder
	Deliver(nil, bus.Envelope{Tag: "t"}, empty.reply)
	assert.ErrorIs(t, empty.err, bus.ErrNoReceiver)
}

func TestDeliverSyncReplyWithoutKeep(t *testing.T) {
	var rec recorder
	Deliver([]bus.Receiver{
		func(env bus.Envelope, reply bus.Responder) bool {
			reply(bus.Fail(errors.New("no")))
			return false
		},
	}, bus.Envelope{Tag: "t"}, rec.reply)
	assert.Equal(t, 1, rec.calls)
	require.NotNil(t, rec.out)
	assert.EqualError(t, rec.out.Fault, "no")
}

// fakeLink answers every Send with a fixed result.
type fakeLink struct {
	out *bus.Outcome
	err error
}

func (f fakeLink) Send(_ bus.Envelope, onReply bus.ReplyFunc) { onReply(f.out, f.err) }

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	var none recorder
	h.Send(bus.Envelope{Tag: "t"}, none.reply)
	assert.ErrorIs(t, none.err, bus.ErrNoReceiver)

	absent := &fakeLink{err: bus.ErrNoReceiver}
	closed := &fakeLink{err: bus.ErrPortClosed}
	detachAbsent := h.Attach(absent)
	h.Attach(closed)
	assert.Equal(t, 2, h.Len())

	var allAbsent recorder
	h.Send(bus.Envelope{Tag: "t"}, allAbsent.reply)
	assert.Equal(t, 1, allAbsent.calls)
	assert.Nil(t, allAbsent.out)
	assert.ErrorIs(t, allAbsent.err, bus.ErrPortClosed, "a specific failure beats plain absence")

	answer := &bus.Outcome{Payload: []byte(`"ok"`)}
	h.Attach(&fakeLink{out: answer})
	var won recorder
	h.Send(bus.Envelope{Tag: "t"}, won.reply)
	assert.Equal(t, 1, won.calls)
	assert.Same(t, answer, won.out)

	detachAbsent()
	assert.Equal(t, 2, h.Len())
}

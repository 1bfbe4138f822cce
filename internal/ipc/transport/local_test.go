package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mithrel/msgbus/pkg/bus"
)

func TestLocalDeliversToOthersInOrder(t *testing.T) {
	l := NewLocal()
	a, b, c := l.Endpoint(), l.Endpoint(), l.Endpoint()
	var seenA []string
	var seenB, seenC []string
	a.RegisterReceiver(func(env bus.Envelope, _ bus.Responder) bool { seenA = append(seenA, env.Tag); return false })
	b.RegisterReceiver(func(env bus.Envelope, _ bus.Responder) bool { seenB = append(seenB, env.Tag); return false })
	c.RegisterReceiver(func(env bus.Envelope, _ bus.Responder) bool { seenC = append(seenC, env.Tag); return false })

	for _, tag := range []string{"1", "2", "3"} {
		a.Send(bus.Envelope{Tag: tag}, func(*bus.Outcome, error) {})
	}
	assert.Empty(t, seenA, "a sender does not hear itself")
	assert.Equal(t, []string{"1", "2", "3"}, seenB)
	assert.Equal(t, []string{"1", "2", "3"}, seenC)
}

func TestLocalClose(t *testing.T) {
	l := NewLocal()
	a, b := l.Endpoint(), l.Endpoint()
	var held bus.Responder
	b.RegisterReceiver(func(_ bus.Envelope, reply bus.Responder) bool { held = reply; return true })

	var got []error
	a.Send(bus.Envelope{Tag: "t"}, func(out *bus.Outcome, err error) { got = append(got, err) })
	assert.Equal(t, 1, b.Held())

	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	assert.Equal(t, []error{bus.ErrPortClosed}, got)

	// A late answer from the closed side is dropped.
	held(bus.Succeed([]byte(`1`)))
	assert.Len(t, got, 1)

	// With b gone nobody receives.
	a.Send(bus.Envelope{Tag: "t"}, func(out *bus.Outcome, err error) { got = append(got, err) })
	assert.Equal(t, []error{bus.ErrPortClosed, bus.ErrNoReceiver}, got)
}

func TestLocalCloseSparesExchangesHeldElsewhere(t *testing.T) {
	l := NewLocal()
	bg, fg, bystander := l.Endpoint(), l.Endpoint(), l.Endpoint()
	var held bus.Responder
	bg.RegisterReceiver(func(env bus.Envelope, reply bus.Responder) bool {
		if env.Tag != "echo" {
			return false
		}
		held = reply
		return true
	})
	bystander.RegisterReceiver(func(bus.Envelope, bus.Responder) bool { return false })

	var outs []*bus.Outcome
	var errs []error
	fg.Send(bus.Envelope{Tag: "echo", Payload: []byte(`"x"`)}, func(out *bus.Outcome, err error) {
		outs = append(outs, out)
		errs = append(errs, err)
	})
	assert.Equal(t, 1, bg.Held())
	assert.Equal(t, 0, bystander.Held())

	assert.NoError(t, bystander.Close())
	assert.Empty(t, errs, "closing an endpoint that holds nothing settles nothing")

	held(bus.Succeed([]byte(`"x"`)))
	if assert.Len(t, errs, 1) {
		assert.NoError(t, errs[0])
		assert.JSONEq(t, `"x"`, string(outs[0].Payload))
	}
	assert.Equal(t, 0, bg.Held())
}

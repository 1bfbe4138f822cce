package bus

import (
	"bytes"
	"encoding/json"
)

// Envelope is the tagged unit handed to a Transport.
type Envelope struct {
	Tag     string          `json:"tag"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outcome is the result of handling one request. Exactly one of Payload and
// Fault is meaningful: a non-nil Fault wins.
type Outcome struct {
	Payload json.RawMessage
	Fault   error
}

// Succeed builds a payload Outcome.
func Succeed(payload json.RawMessage) Outcome { return Outcome{Payload: payload} }

// Fail builds a fault Outcome.
func Fail(err error) Outcome { return Outcome{Fault: err} }

// ReplyFunc is the completion callback a sender hands to the transport. It
// is invoked at most once: with an Outcome, or with a nil Outcome and the
// transport's last error when no response arrived.
type ReplyFunc func(out *Outcome, lastErr error)

// Responder sends an Outcome back to the originating sender.
type Responder func(Outcome)

// Receiver consumes inbound envelopes. Returning true keeps the reply path
// open for an asynchronous Responder call.
type Receiver func(env Envelope, reply Responder) bool

// Transport is the opaque message carrier between contexts.
type Transport interface {
	Send(env Envelope, onReply ReplyFunc)
	RegisterReceiver(r Receiver)
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

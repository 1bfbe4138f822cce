package transport

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mithrel/msgbus/pkg/bus"
)

// MaxFrameSize bounds a single encoded frame.
const MaxFrameSize = 16 << 20

var ErrFrameTooLarge = errors.New("transport: frame too large")

// Kind is the frame discriminator.
type Kind string

const (
	KindRequest Kind = "request"
	KindReply   Kind = "reply"
	KindFault   Kind = "fault"
	KindAbsent  Kind = "absent"
)

// Frame is the wire form of an Envelope or an Outcome.
type Frame struct {
	ID      string
	Kind    Kind
	Tag     string
	Payload json.RawMessage
	Code    string
	Message string
}

// RequestFrame wraps env for sending.
func RequestFrame(id string, env bus.Envelope) Frame {
	return Frame{ID: id, Kind: KindRequest, Tag: env.Tag, Payload: env.Payload}
}

// ReplyFrame encodes the answer to request id. A nil out means nobody
// answered.
func ReplyFrame(id, tag string, out *bus.Outcome, lastErr error) Frame {
	switch {
	case out == nil:
		f := Frame{ID: id, Kind: KindAbsent, Tag: tag}
		if lastErr != nil {
			f.Message = lastErr.Error()
		}
		return f
	case out.Fault != nil:
		return Frame{ID: id, Kind: KindFault, Tag: tag, Code: bus.FaultCode(out.Fault), Message: out.Fault.Error()}
	}
	return Frame{ID: id, Kind: KindReply, Tag: tag, Payload: out.Payload}
}

// Envelope returns the request carried by f.
func (f Frame) Envelope() bus.Envelope {
	return bus.Envelope{Tag: f.Tag, Payload: f.Payload}
}

// Settle hands the answer carried by f to onReply.
func (f Frame) Settle(onReply bus.ReplyFunc) {
	switch f.Kind {
	case KindReply:
		onReply(&bus.Outcome{Payload: f.Payload}, nil)
	case KindFault:
		onReply(&bus.Outcome{Fault: &bus.RemoteError{Tag: f.Tag, Code: f.Code, Message: f.Message}}, nil)
	default:
		onReply(nil, absenceError(f.Message))
	}
}

// absenceError restores the sender-side error of an absent frame. Known
// sentinels keep their identity; any other diagnostic is passed on as text.
func absenceError(msg string) error {
	switch msg {
	case "", bus.ErrNoReceiver.Error():
		return bus.ErrNoReceiver
	case bus.ErrPortClosed.Error():
		return bus.ErrPortClosed
	}
	return errors.New(msg)
}

func (f Frame) toProto() (*structpb.Struct, error) {
	fields := map[string]*structpb.Value{
		"id":   structpb.NewStringValue(f.ID),
		"kind": structpb.NewStringValue(string(f.Kind)),
		"tag":  structpb.NewStringValue(f.Tag),
	}
	if len(f.Payload) > 0 {
		v := &structpb.Value{}
		if err := protojson.Unmarshal(f.Payload, v); err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		fields["payload"] = v
	}
	if f.Code != "" {
		fields["code"] = structpb.NewStringValue(f.Code)
	}
	if f.Message != "" {
		fields["message"] = structpb.NewStringValue(f.Message)
	}
	return &structpb.Struct{Fields: fields}, nil
}

func frameFromProto(s *structpb.Struct) (Frame, error) {
	str := func(k string) string { return s.GetFields()[k].GetStringValue() }
	f := Frame{
		ID:      str("id"),
		Kind:    Kind(str("kind")),
		Tag:     str("tag"),
		Code:    str("code"),
		Message: str("message"),
	}
	switch f.Kind {
	case KindRequest, KindReply, KindFault, KindAbsent:
	default:
		return Frame{}, fmt.Errorf("transport: unknown frame kind %q", f.Kind)
	}
	if v, ok := s.GetFields()["payload"]; ok {
		b, err := protojson.Marshal(v)
		if err != nil {
			return Frame{}, fmt.Errorf("decode payload: %w", err)
		}
		f.Payload = b
	}
	return f, nil
}

// WriteFrame writes f as a length-prefixed protobuf message.
func WriteFrame(w io.Writer, f Frame) error {
	m, err := f.toProto()
	if err != nil {
		return err
	}
	return writeProto(w, m)
}

// ReadFrame reads one frame written by WriteFrame.
func ReadFrame(r *bufio.Reader) (Frame, error) {
	var s structpb.Struct
	if err := readProto(r, &s); err != nil {
		return Frame{}, err
	}
	return frameFromProto(&s)
}

// writeProto writes a length-prefixed protobuf message to w.
func writeProto(w io.Writer, m proto.Message) error {
	b, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	if len(b) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	// Write varint length then payload in one call so concurrent writers
	// holding the same lock never interleave.
	buf := make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+len(b))
	n := binary.PutUvarint(buf, uint64(len(b)))
	buf = append(buf[:n], b...)
	_, err = w.Write(buf)
	return err
}

// readProto reads a single length-prefixed protobuf message into dst. The
// reader must persist across calls so buffered bytes are not lost.
func readProto(br *bufio.Reader, dst proto.Message) error {
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return err
	}
	if ln > MaxFrameSize {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, ln)
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return err
	}
	return proto.Unmarshal(buf, dst)
}

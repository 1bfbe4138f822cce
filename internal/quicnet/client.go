package quicnet

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	quic "github.com/quic-go/quic-go"

	"github.com/mithrel/msgbus/internal/ipc/transport"
	"github.com/mithrel/msgbus/pkg/bus"
)

const alpn = "msgbus-quic/1"

var ErrMissingTLS = errors.New("missing TLS configuration")

func quicConfig() *quic.Config {
	return &quic.Config{KeepAlivePeriod: 15 * time.Second}
}

func withALPN(tlsConf *tls.Config) *tls.Config {
	c := tlsConf.Clone()
	if !slices.Contains(c.NextProtos, alpn) {
		c.NextProtos = append(c.NextProtos, alpn)
	}
	return c
}

// Conn is a bus.Transport over one QUIC connection. Every exchange runs on
// its own bidirectional stream, which is what correlates the answer.
type Conn struct {
	qc        quic.Connection
	recv      *transport.Receivers
	openMu    sync.Mutex
	closeOnce sync.Once
	onClose   func()
}

func newConn(qc quic.Connection, recv *transport.Receivers) *Conn {
	return &Conn{qc: qc, recv: recv}
}

// Dial connects to a Server at addr.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config) (*Conn, error) {
	if tlsConf == nil {
		return nil, ErrMissingTLS
	}
	qc, err := quic.DialAddr(ctx, addr, withALPN(tlsConf), quicConfig())
	if err != nil {
		return nil, err
	}
	c := newConn(qc, &transport.Receivers{})
	go c.acceptLoop()
	return c, nil
}

func (c *Conn) RegisterReceiver(r bus.Receiver) { c.recv.RegisterReceiver(r) }

// Send opens a stream, writes the request and waits for the answer in the
// background. Streams are opened in submission order.
func (c *Conn) Send(env bus.Envelope, onReply bus.ReplyFunc) {
	c.openMu.Lock()
	s, err := c.qc.OpenStreamSync(c.qc.Context())
	if err == nil {
		err = transport.WriteFrame(s, transport.RequestFrame("", env))
		if err == nil {
			err = s.Close()
		}
	}
	c.openMu.Unlock()
	if err != nil {
		if s != nil {
			s.CancelRead(0)
		}
		onReply(nil, c.lastErr(fmt.Errorf("quicnet: send %q: %w", env.Tag, err)))
		return
	}
	go func() {
		f, err := transport.ReadFrame(bufio.NewReader(s))
		if err != nil {
			onReply(nil, c.lastErr(bus.ErrPortClosed))
			return
		}
		f.Settle(onReply)
	}()
}

func (c *Conn) lastErr(err error) error {
	if c.qc.Context().Err() != nil {
		return bus.ErrPortClosed
	}
	return err
}

func (c *Conn) acceptLoop() {
	defer c.shutdown()
	ctx := c.qc.Context()
	for {
		s, err := c.qc.AcceptStream(ctx)
		if err != nil {
			return
		}
		go c.serveStream(s)
	}
}

func (c *Conn) serveStream(s quic.Stream) {
	f, err := transport.ReadFrame(bufio.NewReader(s))
	if err != nil || f.Kind != transport.KindRequest {
		s.CancelRead(0)
		_ = s.Close()
		return
	}
	c.recv.Deliver(f.Envelope(), func(out *bus.Outcome, lastErr error) {
		_ = transport.WriteFrame(s, transport.ReplyFrame(f.ID, f.Tag, out, lastErr))
		_ = s.Close()
	})
}

// Done is closed when the connection is gone.
func (c *Conn) Done() <-chan struct{} { return c.qc.Context().Done() }

func (c *Conn) Close() error {
	err := c.qc.CloseWithError(0, "closed")
	c.shutdown()
	return err
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose()
		}
	})
}

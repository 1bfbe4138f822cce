package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mithrel/msgbus/pkg/bus"
)

// UnixListener listens on a Unix domain socket path.
type UnixListener struct{ Path string }

func (u UnixListener) Listen(ctx context.Context) (net.Listener, error) {
	// Remove stale socket
	_ = os.Remove(u.Path)
	l, err := net.Listen("unix", u.Path)
	if err != nil {
		return nil, err
	}
	_ = os.Chmod(u.Path, 0o600)
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	return l, nil
}

// Peer is one end of a stream connection carrying frames in both
// directions. Requests are correlated with answers by frame id.
type Peer struct {
	conn      net.Conn
	wmu       sync.Mutex
	pending   *Pending
	recv      *Receivers
	done      chan struct{}
	closeOnce sync.Once
	onClose   func()
}

func newPeer(conn net.Conn, recv *Receivers) *Peer {
	return &Peer{
		conn:    conn,
		pending: NewPending(),
		recv:    recv,
		done:    make(chan struct{}),
	}
}

// Dial connects to the socket at path. The returned Peer is a
// bus.Transport for the client side.
func Dial(ctx context.Context, path string) (*Peer, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	p := newPeer(conn, &Receivers{})
	go p.readLoop()
	return p, nil
}

func (p *Peer) RegisterReceiver(r bus.Receiver) { p.recv.RegisterReceiver(r) }

func (p *Peer) Send(env bus.Envelope, onReply bus.ReplyFunc) {
	select {
	case <-p.done:
		onReply(nil, bus.ErrPortClosed)
		return
	default:
	}
	id := p.pending.Add(onReply)
	if err := p.write(RequestFrame(id, env)); err != nil {
		if fn, ok := p.pending.Take(id); ok {
			fn(nil, fmt.Errorf("transport: send %q: %w", env.Tag, err))
		}
	}
}

// Done is closed once the connection is gone.
func (p *Peer) Done() <-chan struct{} { return p.done }

// Outstanding returns the number of requests awaiting an answer.
func (p *Peer) Outstanding() int { return p.pending.Len() }

func (p *Peer) Close() error {
	p.shutdown()
	return nil
}

func (p *Peer) write(f Frame) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return WriteFrame(p.conn, f)
}

func (p *Peer) readLoop() {
	defer p.shutdown()
	br := bufio.NewReader(p.conn)
	for {
		f, err := ReadFrame(br)
		if err != nil {
			return
		}
		if f.Kind == KindRequest {
			id, tag := f.ID, f.Tag
			p.recv.Deliver(f.Envelope(), func(out *bus.Outcome, lastErr error) {
				_ = p.write(ReplyFrame(id, tag, out, lastErr))
			})
			continue
		}
		if fn, ok := p.pending.Take(f.ID); ok {
			f.Settle(fn)
		}
	}
}

func (p *Peer) shutdown() {
	p.closeOnce.Do(func() {
		close(p.done)
		_ = p.conn.Close()
		p.pending.FailAll(bus.ErrPortClosed)
		if p.onClose != nil {
			p.onClose()
		}
	})
}

// UnixServer accepts peers on a Unix socket. It is the bus.Transport of the
// hosting context: its receivers serve every connection and Send reaches
// every connected peer.
type UnixServer struct {
	L   Listener
	Log zerolog.Logger
	hub *Hub
}

func NewUnixServer(l Listener) *UnixServer {
	return &UnixServer{L: l, Log: zerolog.Nop(), hub: NewHub()}
}

func (s *UnixServer) RegisterReceiver(r bus.Receiver) { s.hub.RegisterReceiver(r) }

func (s *UnixServer) Send(env bus.Envelope, onReply bus.ReplyFunc) { s.hub.Send(env, onReply) }

// Peers returns the number of connected peers.
func (s *UnixServer) Peers() int { return s.hub.Len() }

// Serve blocks, accepting peers until ctx is done or the listener fails.
func (s *UnixServer) Serve(ctx context.Context) error {
	l, err := s.L.Listen(ctx)
	if err != nil {
		return err
	}
	defer l.Close()
	defer s.hub.CloseAll()
	errc := make(chan error, 1)
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				errc <- err
				return
			}
			p := newPeer(c, &s.hub.Receivers)
			p.onClose = s.hub.Attach(p)
			s.Log.Debug().Int("peers", s.hub.Len()).Msg("peer connected")
			go p.readLoop()
		}
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		// If context canceled shortly after, suppress spurious errors
		if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
			return nil
		}
		return err
	}
}

// CloseAll closes every attached link that can be closed.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	links := make([]Link, 0, len(h.links))
	for l := range h.links {
		links = append(links, l)
	}
	h.mu.Unlock()
	for _, l := range links {
		if c, ok := l.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

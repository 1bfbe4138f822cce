package quicnet

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/msgbus/pkg/bus"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	tlsConf, err := SelfSignedTLS()
	require.NoError(t, err)
	srv := NewServer("127.0.0.1:0", tlsConf)
	srv.RegisterReceiver(func(env bus.Envelope, reply bus.Responder) bool {
		switch env.Tag {
		case "echo":
			go reply(bus.Succeed(env.Payload))
			return true
		case "fail":
			reply(bus.Fail(&bus.MismatchError{Tag: env.Tag, Side: "request", Err: assert.AnError}))
			return true
		}
		return false
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool { return srv.ListenAddr() != nil }, 2*time.Second, 10*time.Millisecond)
	return srv
}

func exchange(t *testing.T, tr bus.Transport, env bus.Envelope) (*bus.Outcome, error) {
	t.Helper()
	type res struct {
		out *bus.Outcome
		err error
	}
	ch := make(chan res, 1)
	tr.Send(env, func(out *bus.Outcome, err error) { ch <- res{out, err} })
	select {
	case r := <-ch:
		return r.out, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("no settlement")
		return nil, nil
	}
}

func TestQUICRoundTrip(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, srv.ListenAddr().String(), ClientTLS("localhost", true))
	require.NoError(t, err)
	defer c.Close()

	out, err := exchange(t, c, bus.Envelope{Tag: "echo", Payload: json.RawMessage(`{"k":"v"}`)})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.JSONEq(t, `{"k":"v"}`, string(out.Payload))

	out, err = exchange(t, c, bus.Envelope{Tag: "fail"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.ErrorIs(t, out.Fault, bus.ErrCatalogueMismatch)

	out, err = exchange(t, c, bus.Envelope{Tag: "nobody"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, bus.ErrNoReceiver)
}

func TestQUICServerReachesClient(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, srv.ListenAddr().String(), ClientTLS("localhost", true))
	require.NoError(t, err)
	defer c.Close()
	c.RegisterReceiver(func(env bus.Envelope, reply bus.Responder) bool {
		reply(bus.Succeed(json.RawMessage(`"client"`)))
		return true
	})

	// The server learns about the connection on accept; the first exchange
	// from the client guarantees that happened.
	_, _ = exchange(t, c, bus.Envelope{Tag: "echo", Payload: json.RawMessage(`1`)})
	require.Eventually(t, func() bool { return srv.Peers() == 1 }, 2*time.Second, 10*time.Millisecond)

	out, err := exchange(t, srv, bus.Envelope{Tag: "hello"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.JSONEq(t, `"client"`, string(out.Payload))
}

func TestQUICClosedConn(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, srv.ListenAddr().String(), ClientTLS("localhost", true))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	<-c.Done()

	out, err := exchange(t, c, bus.Envelope{Tag: "echo"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, bus.ErrPortClosed)
}

func TestBuildTLSModes(t *testing.T) {
	c, h, err := BuildTLS(context.Background(), TLSOptions{Mode: "self"})
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Contains(t, c.NextProtos, alpn)

	_, _, err = BuildTLS(context.Background(), TLSOptions{Mode: "file"})
	assert.Error(t, err)

	_, _, err = BuildTLS(context.Background(), TLSOptions{Mode: "acme"})
	assert.Error(t, err)

	_, _, err = BuildTLS(context.Background(), TLSOptions{Mode: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestDialWithoutTLS(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1", nil)
	assert.ErrorIs(t, err, ErrMissingTLS)
	assert.ErrorIs(t, NewServer(":0", nil).Serve(context.Background()), ErrMissingTLS)
}

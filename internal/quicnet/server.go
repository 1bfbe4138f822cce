package quicnet

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"net"
	"sync"
	"time"

	quic "github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"github.com/mithrel/msgbus/internal/ipc/transport"
	"github.com/mithrel/msgbus/pkg/bus"
)

// Server accepts QUIC connections and is the bus.Transport of the hosting
// context: receivers serve every connection and Send reaches all of them.
type Server struct {
	Addr string
	TLS  *tls.Config
	Log  zerolog.Logger
	hub  *transport.Hub

	mu    sync.Mutex
	bound net.Addr
}

func NewServer(addr string, tlsConf *tls.Config) *Server {
	return &Server{Addr: addr, TLS: tlsConf, Log: zerolog.Nop(), hub: transport.NewHub()}
}

func (s *Server) RegisterReceiver(r bus.Receiver) { s.hub.RegisterReceiver(r) }

func (s *Server) Send(env bus.Envelope, onReply bus.ReplyFunc) { s.hub.Send(env, onReply) }

// ListenAddr returns the bound address once Serve is listening, else nil.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Peers returns the number of live connections.
func (s *Server) Peers() int { return s.hub.Len() }

// Serve listens on s.Addr until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.TLS == nil {
		return ErrMissingTLS
	}
	l, err := quic.ListenAddr(s.Addr, withALPN(s.TLS), quicConfig())
	if err != nil {
		return err
	}
	defer l.Close()
	defer s.hub.CloseAll()
	s.mu.Lock()
	s.bound = l.Addr()
	s.mu.Unlock()
	s.Log.Info().Str("addr", l.Addr().String()).Msg("quic listening")

	errc := make(chan error, 1)
	go func() {
		for {
			qc, err := l.Accept(ctx)
			if err != nil {
				errc <- err
				return
			}
			c := newConn(qc, &s.hub.Receivers)
			c.onClose = s.hub.Attach(c)
			s.Log.Debug().Str("remote", qc.RemoteAddr().String()).Msg("quic peer connected")
			go c.acceptLoop()
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
}

// SelfSignedTLS is for testing only. Prefer trusted certs in production.
func SelfSignedTLS() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	templ := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, templ, templ, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	cert := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	priv := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	tlsCert, err := tls.X509KeyPair(cert, priv)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{tlsCert}, NextProtos: []string{alpn}}, nil
}

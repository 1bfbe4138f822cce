package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mithrel/msgbus/internal/ipc"
	"github.com/mithrel/msgbus/internal/ipc/transport"
	"github.com/mithrel/msgbus/internal/notify"
	"github.com/mithrel/msgbus/internal/quicnet"
	"github.com/mithrel/msgbus/internal/wire"
	"github.com/mithrel/msgbus/pkg/bus"
)

// Run starts the daemon using the provided, already-wired App (config, store, logger).
// The caller controls the lifecycle via ctx.
func Run(ctx context.Context, app *wire.App) error {
	store, err := app.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	sock, err := ipc.SocketPath(app.Cfg)
	if err != nil {
		return err
	}
	svc := NewService(app.Cfg, store, app.Log)

	usrv := transport.NewUnixServer(transport.UnixListener{Path: sock})
	usrv.Log = app.Log.With().Str("transport", "unix").Logger()
	if err := svc.Attach(newChannel(ctx, app, usrv)); err != nil {
		return err
	}

	var hl net.Listener
	if addr := strings.TrimSpace(app.Cfg.GetString("http_addr")); addr != "" && addr != "off" {
		if hl, err = net.Listen("tcp", addr); err != nil {
			return fmt.Errorf("http listen: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	mux := http.NewServeMux()
	health := &health{unix: usrv, svc: svc}

	if app.Cfg.GetBool("quic.enabled") {
		qsrv, challenge, err := newQUICServer(ctx, app, svc, app.Cfg.GetString("quic.addr"))
		if err != nil {
			if hl != nil {
				_ = hl.Close()
			}
			return err
		}
		if challenge != nil {
			mux.Handle("/.well-known/acme-challenge/", challenge)
		}
		health.quic = qsrv
		g.Go(func() error { return qsrv.Serve(ctx) })
	}

	sched := &notify.Scheduler{Every: app.Cfg.GetDuration("features.update_interval")}
	g.Go(func() error {
		sched.Run(ctx, svc.Refresh)
		return nil
	})

	g.Go(func() error {
		app.Log.Info().Str("socket", sock).Msg("daemon listening")
		return usrv.Serve(ctx)
	})

	if hl != nil {
		mux.Handle("/healthz", health)
		g.Go(func() error { return serveHTTP(ctx, hl, mux) })
	}

	return g.Wait()
}

// ServeQUIC hosts the operations on QUIC only, without the unix socket or
// the health endpoint.
func ServeQUIC(ctx context.Context, app *wire.App, addr string) error {
	store, err := app.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	svc := NewService(app.Cfg, store, app.Log)
	qsrv, _, err := newQUICServer(ctx, app, svc, addr)
	if err != nil {
		return err
	}
	return qsrv.Serve(ctx)
}

// newQUICServer builds the QUIC transport from the quic.* settings and
// attaches svc to it. The handler, when not nil, answers ACME HTTP-01
// challenges.
func newQUICServer(ctx context.Context, app *wire.App, svc *Service, addr string) (*quicnet.Server, http.Handler, error) {
	tlsConf, challenge, err := quicnet.BuildTLS(ctx, quicnet.TLSOptions{
		Mode:     app.Cfg.GetString("quic.tls"),
		CertFile: app.Cfg.GetString("quic.cert_file"),
		KeyFile:  app.Cfg.GetString("quic.key_file"),
		ACME: quicnet.CertMagicConfig{
			Domain:       app.Cfg.GetString("quic.domain"),
			Email:        app.Cfg.GetString("quic.email"),
			EnableHTTP01: true,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("quic tls: %w", err)
	}
	qsrv := quicnet.NewServer(addr, tlsConf)
	qsrv.Log = app.Log.With().Str("transport", "quic").Logger()
	if err := svc.Attach(newChannel(ctx, app, qsrv)); err != nil {
		return nil, nil, err
	}
	return qsrv, challenge, nil
}

func newChannel(ctx context.Context, app *wire.App, t bus.Transport) *bus.Channel {
	return bus.New(t, app.Catalogue,
		bus.WithLogger(app.Log),
		bus.WithContext(ctx),
	)
}

type peerCounter interface{ Peers() int }

type health struct {
	unix peerCounter
	quic peerCounter
	svc  *Service
}

func (h *health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "ok unix_peers=%d", h.unix.Peers())
	if h.quic != nil {
		fmt.Fprintf(w, " quic_peers=%d", h.quic.Peers())
	}
	fmt.Fprintf(w, " auto_update=%t\n", h.svc.AutoUpdate())
}

// serveHTTP serves mux on l until ctx is done.
func serveHTTP(ctx context.Context, l net.Listener, mux http.Handler) error {
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

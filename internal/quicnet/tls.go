package quicnet

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caddyserver/certmagic"
)

// TLSOptions selects how the QUIC server obtains its certificate.
type TLSOptions struct {
	Mode     string // "self", "file" or "acme"
	CertFile string
	KeyFile  string
	ACME     CertMagicConfig
}

// BuildTLS returns the server TLS config for opts. For ACME with HTTP-01
// enabled it also returns the challenge handler the caller must serve.
func BuildTLS(ctx context.Context, opts TLSOptions) (*tls.Config, http.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "", "self":
		c, err := SelfSignedTLS()
		return c, nil, err
	case "file":
		c, err := BuildFileTLS(opts.CertFile, opts.KeyFile)
		return c, nil, err
	case "acme":
		return BuildCertMagicTLS(ctx, opts.ACME)
	}
	return nil, nil, fmt.Errorf("quicnet: unknown tls mode %q", opts.Mode)
}

// ClientTLS builds the dialing side config. Skipping verification is only
// meant for self-signed local setups.
func ClientTLS(serverName string, insecure bool) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: insecure,
		NextProtos:         []string{alpn},
		MinVersion:         tls.VersionTLS13,
	}
}

// CertMagicConfig configures automatic certificate management with CertMagic.
type CertMagicConfig struct {
	Domain     string
	Email      string
	StorageDir string // optional; defaults to XDG or ~/.cache/msgbus/certmagic
	CA         string // optional; defaults to Let's Encrypt prod
	// Challenges
	EnableHTTP01  bool
	EnableTLSALPN bool
}

// BuildCertMagicTLS provisions or loads a certificate for cfg.Domain.
func BuildCertMagicTLS(ctx context.Context, cfg CertMagicConfig) (*tls.Config, http.Handler, error) {
	if cfg.Domain == "" {
		return nil, nil, errors.New("domain is required")
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = defaultCertDir()
	}
	if err := os.MkdirAll(cfg.StorageDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("cert storage: %w", err)
	}

	cm := certmagic.NewDefault()
	cm.Storage = &certmagic.FileStorage{Path: cfg.StorageDir}
	ca := cfg.CA
	if ca == "" {
		ca = certmagic.LetsEncryptProductionCA
	}
	issuer := certmagic.NewACMEIssuer(cm, certmagic.ACMEIssuer{
		CA:                      ca,
		Email:                   cfg.Email,
		Agreed:                  true,
		DisableHTTPChallenge:    !cfg.EnableHTTP01,
		DisableTLSALPNChallenge: !cfg.EnableTLSALPN,
	})
	cm.Issuers = []certmagic.Issuer{issuer}

	if err := cm.ManageSync(ctx, []string{cfg.Domain}); err != nil {
		return nil, nil, err
	}
	tlsConf := withALPN(cm.TLSConfig())
	tlsConf.MinVersion = tls.VersionTLS13
	if cfg.EnableHTTP01 {
		return tlsConf, issuer.HTTPChallengeHandler(http.NotFoundHandler()), nil
	}
	return tlsConf, nil, nil
}

func defaultCertDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "msgbus", "certmagic")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "msgbus", "certmagic")
}

// BuildFileTLS loads a certificate from PEM files for BYO certs.
func BuildFileTLS(certFile, keyFile string) (*tls.Config, error) {
	if certFile == "" || keyFile == "" {
		return nil, errors.New("both certFile and keyFile are required")
	}
	c, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	now := time.Now()
	for i, b := range c.Certificate {
		cert, err := x509.ParseCertificate(b)
		if err != nil {
			return nil, fmt.Errorf("invalid certificate at index %d: %w", i, err)
		}
		if now.Before(cert.NotBefore) {
			return nil, fmt.Errorf("certificate not yet valid (starts %s)", cert.NotBefore)
		}
		if now.After(cert.NotAfter) {
			return nil, fmt.Errorf("certificate expired on %s", cert.NotAfter)
		}
	}
	return &tls.Config{Certificates: []tls.Certificate{c}, NextProtos: []string{alpn}, MinVersion: tls.VersionTLS13}, nil
}

package twc

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// HTTPClientConfig describes the single outbound HTTP client shared by every
// weather service call. Certificate verification is on unless
// InsecureSkipVerify is explicitly set.
type HTTPClientConfig struct {
	Timeout            time.Duration
	CAFile             string
	InsecureSkipVerify bool
}

// NewHTTPClient builds the shared client. CAFile, when set, replaces the
// system roots with the PEM bundle it contains.
func NewHTTPClient(cfg HTTPClientConfig, logger *slog.Logger) (*http.Client, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("CA bundle contains no certificates")
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.InsecureSkipVerify {
		logger.Warn("weather service TLS certificate verification is disabled")
		tlsCfg.InsecureSkipVerify = true //nolint:gosec // explicit operator opt-in
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, nil
}

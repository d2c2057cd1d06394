package twc

import (
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTLSServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewHTTPClient_VerifiesCertificatesByDefault(t *testing.T) {
	srv := newTLSServer(t)

	client, err := NewHTTPClient(HTTPClientConfig{Timeout: 2 * time.Second}, discardLogger())
	require.NoError(t, err)

	_, err = client.Get(srv.URL)
	require.Error(t, err, "self-signed certificate must be rejected")
}

func TestNewHTTPClient_CustomCABundle(t *testing.T) {
	srv := newTLSServer(t)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, pemBytes, 0o600))

	client, err := NewHTTPClient(HTTPClientConfig{Timeout: 2 * time.Second, CAFile: caFile}, discardLogger())
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestNewHTTPClient_InsecureIsExplicit(t *testing.T) {
	srv := newTLSServer(t)

	client, err := NewHTTPClient(HTTPClientConfig{Timeout: 2 * time.Second, InsecureSkipVerify: true}, discardLogger())
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestNewHTTPClient_BadCABundle(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caFile, []byte("not a certificate"), 0o600))

	_, err := NewHTTPClient(HTTPClientConfig{CAFile: caFile}, discardLogger())
	assert.Error(t, err)

	_, err = NewHTTPClient(HTTPClientConfig{CAFile: filepath.Join(t.TempDir(), "missing.pem")}, discardLogger())
	assert.Error(t, err)
}

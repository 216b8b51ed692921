package certs

import (
	"crypto/x509"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafOf(t *testing.T, m *FileManager) *x509.Certificate {
	t.Helper()
	cfg, err := m.TLSConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
	leaf, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	require.NoError(t, err)
	return leaf
}

func TestTLSConfig(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, dir string)
		hosts     []string
		wantHosts []string
	}{
		{
			name:      "generates when missing",
			wantHosts: []string{"localhost", "127.0.0.1", "::1"},
		},
		{
			name:      "covers extra hosts",
			hosts:     []string{"dash.internal", "10.0.0.5"},
			wantHosts: []string{"localhost", "dash.internal", "10.0.0.5"},
		},
		{
			name: "replaces garbage files",
			setup: func(t *testing.T, dir string) {
				t.Helper()
				require.NoError(t, os.MkdirAll(dir, 0o700))
				m := NewFileManager(dir)
				require.NoError(t, os.WriteFile(m.CertFile(), []byte("not a cert"), 0o600))
				require.NoError(t, os.WriteFile(m.KeyFile(), []byte("not a key"), 0o600))
			},
			wantHosts: []string{"localhost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir() + "/certs"
			if tt.setup != nil {
				tt.setup(t, dir)
			}
			leaf := leafOf(t, NewFileManager(dir, tt.hosts...))
			for _, h := range tt.wantHosts {
				assert.NoError(t, leaf.VerifyHostname(h), h)
			}
			assert.Equal(t, "FinSight", leaf.Subject.Organization[0])
		})
	}
}

func TestTLSConfigReusesValidPair(t *testing.T) {
	dir := t.TempDir()
	first := leafOf(t, NewFileManager(dir))
	second := leafOf(t, NewFileManager(dir))
	assert.Equal(t, first.SerialNumber, second.SerialNumber)
}

func TestTLSConfigRegenerates(t *testing.T) {
	dir := t.TempDir()
	first := leafOf(t, NewFileManager(dir))

	t.Run("new host", func(t *testing.T) {
		leaf := leafOf(t, NewFileManager(dir, "dash.internal"))
		assert.NotEqual(t, first.SerialNumber, leaf.SerialNumber)
	})

	t.Run("expiring", func(t *testing.T) {
		m := NewFileManager(dir, "dash.internal")
		before := leafOf(t, m)
		m.now = func() time.Time { return time.Now().Add(Validity - time.Hour) }
		after := leafOf(t, m)
		assert.NotEqual(t, before.SerialNumber, after.SerialNumber)
	})
}

package admission

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCertReloaderPicksUpRotatedCertificate(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "tls.crt")
	keyPath := filepath.Join(dir, "tls.key")

	writeSelfSignedCert(t, certPath, keyPath, "first")
	r, err := newCertReloader(certPath, keyPath)
	require.NoError(t, err)

	first := r.current.Load()
	require.NotNil(t, first)

	stop := make(chan struct{})
	defer close(stop)
	errs := make(chan error, 1)
	require.NoError(t, r.watch(stop, 50*time.Millisecond, func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))

	writeSelfSignedCert(t, certPath, keyPath, "second")

	require.Eventually(t, func() bool {
		return r.current.Load() != first
	}, 2*time.Second, 20*time.Millisecond)
}

func writeSelfSignedCert(t *testing.T, certPath, keyPath, serial string) {
	t.Helper()
	cert, key := generateSelfSigned(t, serial)
	require.NoError(t, os.WriteFile(certPath, cert, 0o600))
	require.NoError(t, os.WriteFile(keyPath, key, 0o600))
}

func generateSelfSigned(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

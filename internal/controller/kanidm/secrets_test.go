package kanidm

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

func newFixture(t *testing.T, objs ...kclient.Object) kclient.Client {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, kanidmv1beta1.AddToScheme(scheme))
	return fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build()
}

func selfSignedCertPEM(t *testing.T, notAfter time.Time) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "kanidm.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestEnsureBootstrapSecretCreatesOnceAndNeverRegenerates(t *testing.T) {
	kube := newFixture(t)
	scheme := kube.Scheme()
	k := &kanidmv1beta1.Kanidm{}
	k.Name = "prod"
	k.Namespace = "default"

	created, err := ensureBootstrapSecret(context.Background(), kube, scheme, k)
	require.NoError(t, err)
	require.True(t, created)

	var secret corev1.Secret
	require.NoError(t, kube.Get(context.Background(), kclient.ObjectKey{Namespace: "default", Name: "prod-admin"}, &secret))
	firstAdmin := string(secret.Data["admin"])
	require.NotEmpty(t, firstAdmin)

	created, err = ensureBootstrapSecret(context.Background(), kube, scheme, k)
	require.NoError(t, err)
	require.False(t, created)

	require.NoError(t, kube.Get(context.Background(), kclient.ObjectKey{Namespace: "default", Name: "prod-admin"}, &secret))
	require.Equal(t, firstAdmin, string(secret.Data["admin"]))
}

func TestCheckTLSSecretAbsentConfiguredNameIsNotPresent(t *testing.T) {
	kube := newFixture(t)
	status, err := checkTLSSecret(context.Background(), kube, "default", "missing-tls")
	require.NoError(t, err)
	require.False(t, status.Present)
}

func TestCheckTLSSecretEmptyNameIsNotPresent(t *testing.T) {
	kube := newFixture(t)
	status, err := checkTLSSecret(context.Background(), kube, "default", "")
	require.NoError(t, err)
	require.False(t, status.Present)
}

func TestCheckTLSSecretFlagsNeedsRenewWithinWindow(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "tls", Namespace: "default"},
		Data: map[string][]byte{
			corev1.TLSCertKey:       selfSignedCertPEM(t, time.Now().Add(10*24*time.Hour)),
			corev1.TLSPrivateKeyKey: []byte("unused"),
		},
	}
	kube := newFixture(t, secret)

	status, err := checkTLSSecret(context.Background(), kube, "default", "tls")
	require.NoError(t, err)
	require.True(t, status.Present)
	require.True(t, status.NeedsRenew)
}

func TestCheckTLSSecretAcceptsLongLivedCert(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "tls", Namespace: "default"},
		Data: map[string][]byte{
			corev1.TLSCertKey:       selfSignedCertPEM(t, time.Now().Add(365*24*time.Hour)),
			corev1.TLSPrivateKeyKey: []byte("unused"),
		},
	}
	kube := newFixture(t, secret)

	status, err := checkTLSSecret(context.Background(), kube, "default", "tls")
	require.NoError(t, err)
	require.True(t, status.Present)
	require.False(t, status.NeedsRenew)
}

func TestCheckTLSSecretRejectsMissingCertKey(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "tls", Namespace: "default"},
		Data:       map[string][]byte{"other": []byte("x")},
	}
	kube := newFixture(t, secret)

	_, err := checkTLSSecret(context.Background(), kube, "default", "tls")
	require.Error(t, err)
}

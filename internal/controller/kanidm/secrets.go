package kanidm

import (
	"context"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	gtrace "github.com/gravitational/trace"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

// tlsRotationWindow is how far ahead of expiry a replication certificate is
// considered due for rotation.
const tlsRotationWindow = 30 * 24 * time.Hour

func bootstrapSecretName(k *kanidmv1beta1.Kanidm) string { return k.Name + "-admin" }

// ensureBootstrapSecret creates the admin-credential Secret on first
// reconcile and never regenerates passwords once it exists: this Secret is
// the sole admin credential source for the Client Pool's CredentialSource.
func ensureBootstrapSecret(ctx context.Context, kube kclient.Client, scheme *runtime.Scheme, k *kanidmv1beta1.Kanidm) (created bool, err error) {
	secret := &corev1.Secret{}
	getErr := kube.Get(ctx, types.NamespacedName{Namespace: k.Namespace, Name: bootstrapSecretName(k)}, secret)
	if getErr == nil {
		return false, nil
	}
	if !apierrors.IsNotFound(getErr) {
		return false, gtrace.Wrap(getErr)
	}

	adminPassword, err := randomSecret(32)
	if err != nil {
		return false, gtrace.Wrap(err)
	}
	idmAdminPassword, err := randomSecret(32)
	if err != nil {
		return false, gtrace.Wrap(err)
	}

	secret = &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      bootstrapSecretName(k),
			Namespace: k.Namespace,
		},
		Data: map[string][]byte{
			"admin":     []byte(adminPassword),
			"idm_admin": []byte(idmAdminPassword),
		},
	}
	if err := controllerutil.SetControllerReference(k, secret, scheme); err != nil {
		return false, gtrace.Wrap(err)
	}
	if err := kube.Create(ctx, secret); err != nil && !apierrors.IsAlreadyExists(err) {
		return false, gtrace.Wrap(err)
	}
	return true, nil
}

// randomSecret returns a base64url-encoded string of n random bytes. No
// third-party CSPRNG fits this narrow a concern, so this stays on
// crypto/rand.
func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", gtrace.Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// tlsSecretStatus reports whether the referenced TLS secret exists and how
// soon its leaf certificate expires.
type tlsSecretStatus struct {
	Present    bool
	ExpiresAt  time.Time
	NeedsRenew bool
}

func checkTLSSecret(ctx context.Context, kube kclient.Client, namespace, name string) (tlsSecretStatus, error) {
	if name == "" {
		return tlsSecretStatus{}, nil
	}

	secret := &corev1.Secret{}
	if err := kube.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, secret); err != nil {
		if apierrors.IsNotFound(err) {
			return tlsSecretStatus{}, nil
		}
		return tlsSecretStatus{}, gtrace.Wrap(err)
	}

	crt, ok := secret.Data[corev1.TLSCertKey]
	if !ok {
		return tlsSecretStatus{}, gtrace.BadParameter("secret %q is missing %q", name, corev1.TLSCertKey)
	}

	block, _ := pem.Decode(crt)
	if block == nil {
		return tlsSecretStatus{}, gtrace.BadParameter("secret %q %q is not valid PEM", name, corev1.TLSCertKey)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return tlsSecretStatus{}, gtrace.Wrap(err, "parse certificate in secret %q", name)
	}

	return tlsSecretStatus{
		Present:    true,
		ExpiresAt:  cert.NotAfter,
		NeedsRenew: time.Until(cert.NotAfter) < tlsRotationWindow,
	}, nil
}

// ensureOwnerLabels stamps every owned object with the label set used for
// garbage collection and selection.
func ensureOwnerLabels(k *kanidmv1beta1.Kanidm, replicaGroup string, obj kclient.Object) {
	labels := obj.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	labels["app.kubernetes.io/managed-by"] = "kaniop"
	labels["kanidm.kaniop.rs/cluster"] = k.Name
	if replicaGroup != "" {
		labels["kanidm.kaniop.rs/replica-group"] = replicaGroup
	}
	obj.SetLabels(labels)
}

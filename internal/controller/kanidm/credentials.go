package kanidm

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"

	gtrace "github.com/gravitational/trace"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/clientpool"
)

// CredentialSource resolves a Kanidm cluster's admin session parameters from
// its CR and bootstrap Secret, for use by clientpool.Pool.
type CredentialSource struct {
	Client kclient.Client
	// DevYoloSkipVerify forces insecureSkipVerify on regardless of
	// TLSSecretName, set from the KANIDM_DEV_YOLO=1 test-only escape hatch.
	DevYoloSkipVerify bool
}

// Resolve implements clientpool.CredentialSource.
func (s CredentialSource) Resolve(ctx context.Context, id clientpool.ClusterIdentity) (baseURL, username, password string, insecureSkipVerify bool, err error) {
	k := &kanidmv1beta1.Kanidm{}
	if getErr := s.Client.Get(ctx, types.NamespacedName{Namespace: id.Namespace, Name: id.Name}, k); getErr != nil {
		return "", "", "", false, gtrace.Wrap(getErr, "resolve kanidm cluster %s/%s", id.Namespace, id.Name)
	}

	secret := &corev1.Secret{}
	if getErr := s.Client.Get(ctx, types.NamespacedName{Namespace: id.Namespace, Name: bootstrapSecretName(k)}, secret); getErr != nil {
		return "", "", "", false, gtrace.Wrap(getErr, "get bootstrap secret for kanidm cluster %s/%s", id.Namespace, id.Name)
	}

	password = string(secret.Data["idm_admin"])
	if password == "" {
		return "", "", "", false, gtrace.BadParameter("bootstrap secret for %s/%s has no idm_admin password", id.Namespace, id.Name)
	}

	baseURL = fmt.Sprintf("https://%s.%s.svc:8443", globalServiceName(k), id.Namespace)
	return baseURL, "idm_admin", password, s.DevYoloSkipVerify || k.Spec.TLSSecretName == "", nil
}

package kanidm

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"

	gtrace "github.com/gravitational/trace"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/kanidmapi"
)

// replicationResult carries the outcome of wiring replication peers so the
// caller can fold it into the ReplicationHealthy condition without treating
// an unreachable peer as a reconcile failure.
type replicationResult struct {
	Healthy         bool
	UnreachablePeer string
}

func reconcileReplication(ctx context.Context, kube kclient.Client, kc *kanidmapi.Client, k *kanidmv1beta1.Kanidm) (replicationResult, error) {
	if len(k.Spec.ExternalReplicationNodes) == 0 {
		return replicationResult{Healthy: true}, nil
	}

	for _, node := range k.Spec.ExternalReplicationNodes {
		secret := &corev1.Secret{}
		if err := kube.Get(ctx, types.NamespacedName{Namespace: k.Namespace, Name: node.CertificateSecretRef}, secret); err != nil {
			if apierrors.IsNotFound(err) {
				return replicationResult{Healthy: false, UnreachablePeer: node.Name}, nil
			}
			return replicationResult{}, gtrace.Wrap(err)
		}
		cert := string(secret.Data[corev1.TLSCertKey])

		if err := kc.UpsertReplicationPeer(ctx, kanidmapi.ReplicationPeer{
			Name:        node.Name,
			Hostname:    node.Hostname,
			Port:        node.Port,
			Type:        string(node.Type),
			Automatic:   node.AutomaticRefresh,
			Certificate: cert,
		}); err != nil {
			return replicationResult{}, gtrace.Wrap(err)
		}
	}

	peers, err := kc.ListReplicationPeers(ctx)
	if err != nil {
		return replicationResult{}, gtrace.Wrap(err)
	}
	for _, p := range peers {
		if !p.Reachable {
			return replicationResult{Healthy: false, UnreachablePeer: p.Name}, nil
		}
	}
	return replicationResult{Healthy: true}, nil
}

package base

import (
	gtrace "github.com/gravitational/trace"

	"github.com/pando85/kaniop/internal/clientpool"
)

// KanidmRef is the subset of apis/kanidm/v1beta1.KanidmRef this package
// needs, declared locally to avoid base depending on the api package.
type KanidmRef struct {
	Name      string
	Namespace string
}

// ResolveClusterIdentity normalizes ref against the entity's own namespace:
// an empty ref namespace defaults to ownNamespace. crossNamespace must be
// true for the normalized namespace to differ from ownNamespace; only
// KanidmOAuth2Client permits that.
func ResolveClusterIdentity(ref KanidmRef, ownNamespace string, crossNamespace bool) (clientpool.ClusterIdentity, error) {
	ns := ref.Namespace
	if ns == "" {
		ns = ownNamespace
	}
	if ns != ownNamespace && !crossNamespace {
		return clientpool.ClusterIdentity{}, gtrace.BadParameter(
			"kanidmRef namespace %q differs from this resource's namespace %q; cross-namespace references are not permitted for this kind",
			ns, ownNamespace)
	}
	return clientpool.ClusterIdentity{Namespace: ns, Name: ref.Name}, nil
}

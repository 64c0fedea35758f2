package kanidm

import (
	gtrace "github.com/gravitational/trace"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

// validate checks the cross-field invariants of §3.3. A non-nil return is
// terminal: the CR is marked Invalid and reconcile does not retry until the
// spec changes.
func validate(k *kanidmv1beta1.Kanidm) error {
	names := map[string]bool{}
	primaries := 0
	needsDurableStorage := false

	for _, rg := range k.Spec.ReplicaGroups {
		if names[rg.Name] {
			return gtrace.BadParameter("replica group name %q is duplicated", rg.Name)
		}
		names[rg.Name] = true

		if rg.PrimaryNode != nil && *rg.PrimaryNode {
			if rg.Role == kanidmv1beta1.RoleReadReplica {
				return gtrace.BadParameter("replica group %q: primaryNode requires a write role", rg.Name)
			}
			primaries++
		}
		if rg.Replicas > 1 {
			needsDurableStorage = true
		}
	}

	for _, node := range k.Spec.ExternalReplicationNodes {
		if node.AutomaticRefresh {
			primaries++
			if node.Type != kanidmv1beta1.ExternalReplicationPull && node.Type != kanidmv1beta1.ExternalReplicationMutualPull {
				return gtrace.BadParameter("external replication node %q: automaticRefresh requires type pull or mutual-pull", node.Name)
			}
		}
		needsDurableStorage = true
	}

	if primaries > 1 {
		return gtrace.BadParameter("at most one primary node is allowed across replica groups and external replication nodes; found %d", primaries)
	}

	if needsDurableStorage && k.Spec.Storage.VolumeClaimTemplate == nil {
		return gtrace.BadParameter("replication requires durable storage: a volumeClaimTemplate must be set when any replica group has replicas>1 or external replication nodes are configured")
	}

	return nil
}

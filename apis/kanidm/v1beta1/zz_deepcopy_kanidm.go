package v1beta1

import (
	corev1 "k8s.io/api/core/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies the receiver into out.
func (in *ReplicaGroup) DeepCopyInto(out *ReplicaGroup) {
	*out = *in
	if in.PrimaryNode != nil {
		b := *in.PrimaryNode
		out.PrimaryNode = &b
	}
	in.Resources.DeepCopyInto(&out.Resources)
	if in.Affinity != nil {
		out.Affinity = in.Affinity.DeepCopy()
	}
	if in.Tolerations != nil {
		out.Tolerations = make([]corev1.Toleration, len(in.Tolerations))
		copy(out.Tolerations, in.Tolerations)
	}
	if in.Topology != nil {
		out.Topology = make([]corev1.TopologySpreadConstraint, len(in.Topology))
		for i := range in.Topology {
			in.Topology[i].DeepCopyInto(&out.Topology[i])
		}
	}
	if in.StatefulSetAnnotations != nil {
		out.StatefulSetAnnotations = make(map[string]string, len(in.StatefulSetAnnotations))
		for k, v := range in.StatefulSetAnnotations {
			out.StatefulSetAnnotations[k] = v
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *ReplicaGroup) DeepCopy() *ReplicaGroup {
	if in == nil {
		return nil
	}
	out := new(ReplicaGroup)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *ExternalReplicationNode) DeepCopyInto(out *ExternalReplicationNode) {
	*out = *in
}

// DeepCopy returns a deep copy of the receiver.
func (in *ExternalReplicationNode) DeepCopy() *ExternalReplicationNode {
	if in == nil {
		return nil
	}
	out := new(ExternalReplicationNode)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *StorageSpec) DeepCopyInto(out *StorageSpec) {
	*out = *in
	if in.EmptyDir != nil {
		out.EmptyDir = in.EmptyDir.DeepCopy()
	}
	if in.Ephemeral != nil {
		out.Ephemeral = in.Ephemeral.DeepCopy()
	}
	if in.VolumeClaimTemplate != nil {
		out.VolumeClaimTemplate = in.VolumeClaimTemplate.DeepCopy()
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *StorageSpec) DeepCopy() *StorageSpec {
	if in == nil {
		return nil
	}
	out := new(StorageSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmServiceSpec) DeepCopyInto(out *KanidmServiceSpec) {
	*out = *in
	if in.Annotations != nil {
		out.Annotations = make(map[string]string, len(in.Annotations))
		for k, v := range in.Annotations {
			out.Annotations[k] = v
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmServiceSpec) DeepCopy() *KanidmServiceSpec {
	if in == nil {
		return nil
	}
	out := new(KanidmServiceSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmIngressSpec) DeepCopyInto(out *KanidmIngressSpec) {
	*out = *in
	if in.Class != nil {
		c := *in.Class
		out.Class = &c
	}
	if in.Annotations != nil {
		out.Annotations = make(map[string]string, len(in.Annotations))
		for k, v := range in.Annotations {
			out.Annotations[k] = v
		}
	}
	if in.ExtraTLSHosts != nil {
		out.ExtraTLSHosts = append([]string(nil), in.ExtraTLSHosts...)
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmIngressSpec) DeepCopy() *KanidmIngressSpec {
	if in == nil {
		return nil
	}
	out := new(KanidmIngressSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmSpec) DeepCopyInto(out *KanidmSpec) {
	*out = *in
	if in.ReplicaGroups != nil {
		out.ReplicaGroups = make([]ReplicaGroup, len(in.ReplicaGroups))
		for i := range in.ReplicaGroups {
			in.ReplicaGroups[i].DeepCopyInto(&out.ReplicaGroups[i])
		}
	}
	if in.ExternalReplicationNodes != nil {
		out.ExternalReplicationNodes = append([]ExternalReplicationNode(nil), in.ExternalReplicationNodes...)
	}
	if in.Env != nil {
		out.Env = make([]corev1.EnvVar, len(in.Env))
		copy(out.Env, in.Env)
	}
	in.Storage.DeepCopyInto(&out.Storage)
	in.Service.DeepCopyInto(&out.Service)
	if in.Ingress != nil {
		out.Ingress = in.Ingress.DeepCopy()
	}
	if in.SecurityContext != nil {
		out.SecurityContext = in.SecurityContext.DeepCopy()
	}
	if in.OAuth2ClientNamespaceSelector != nil {
		out.OAuth2ClientNamespaceSelector = in.OAuth2ClientNamespaceSelector.DeepCopy()
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmSpec) DeepCopy() *KanidmSpec {
	if in == nil {
		return nil
	}
	out := new(KanidmSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmStatus) DeepCopyInto(out *KanidmStatus) {
	*out = *in
	in.StatusEnvelope.DeepCopyInto(&out.StatusEnvelope)
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmStatus) DeepCopy() *KanidmStatus {
	if in == nil {
		return nil
	}
	out := new(KanidmStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *Kanidm) DeepCopyInto(out *Kanidm) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of the receiver.
func (in *Kanidm) DeepCopy() *Kanidm {
	if in == nil {
		return nil
	}
	out := new(Kanidm)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *Kanidm) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmList) DeepCopyInto(out *KanidmList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]Kanidm, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmList) DeepCopy() *KanidmList {
	if in == nil {
		return nil
	}
	out := new(KanidmList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

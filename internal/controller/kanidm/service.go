package kanidm

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

func intOrStringFromPort(p int32) intstr.IntOrString { return intstr.FromInt(int(p)) }

func headlessServiceName(k *kanidmv1beta1.Kanidm, rg kanidmv1beta1.ReplicaGroup) string {
	return k.Name + "-" + rg.Name + "-headless"
}

func globalServiceName(k *kanidmv1beta1.Kanidm) string { return k.Name }

func portName(p string, fallback string) string {
	if p == "" {
		return fallback
	}
	return p
}

func servicePorts(k *kanidmv1beta1.Kanidm) []corev1.ServicePort {
	return []corev1.ServicePort{
		{Name: portName(k.Spec.PortName, "https"), Port: 8443, TargetPort: intOrStringFromPort(8443)},
		{Name: portName(k.Spec.LdapPortName, "ldap"), Port: 3636, TargetPort: intOrStringFromPort(3636)},
	}
}

// buildHeadlessService gives each pod in a replica group a stable DNS name
// for replication addressability.
func buildHeadlessService(k *kanidmv1beta1.Kanidm, rg kanidmv1beta1.ReplicaGroup) *corev1.Service {
	labels := map[string]string{
		"app.kubernetes.io/managed-by":   "kaniop",
		"kanidm.kaniop.rs/cluster":       k.Name,
		"kanidm.kaniop.rs/replica-group": rg.Name,
	}
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      headlessServiceName(k, rg),
			Namespace: k.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Selector:  labels,
			Ports:     servicePorts(k),
		},
	}
}

// buildGlobalService is the client-facing entry point spanning every replica
// group. Session affinity is required whenever more than one write replica
// exists.
func buildGlobalService(k *kanidmv1beta1.Kanidm) *corev1.Service {
	selector := map[string]string{
		"app.kubernetes.io/managed-by": "kaniop",
		"kanidm.kaniop.rs/cluster":     k.Name,
	}
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:        globalServiceName(k),
			Namespace:   k.Namespace,
			Labels:      selector,
			Annotations: k.Spec.Service.Annotations,
		},
		Spec: corev1.ServiceSpec{
			Type:     serviceType(k.Spec.Service.Type),
			Selector: selector,
			Ports:    servicePorts(k),
		},
	}

	if countWriteReplicas(k) > 1 {
		svc.Spec.SessionAffinity = corev1.ServiceAffinityClientIP
		svc.Spec.SessionAffinityConfig = &corev1.SessionAffinityConfig{
			ClientIP: &corev1.ClientIPConfig{TimeoutSeconds: int32Ptr(10800)},
		}
	}
	return svc
}

func serviceType(t corev1.ServiceType) corev1.ServiceType {
	if t == "" {
		return corev1.ServiceTypeClusterIP
	}
	return t
}

func countWriteReplicas(k *kanidmv1beta1.Kanidm) int32 {
	var total int32
	for _, rg := range k.Spec.ReplicaGroups {
		if rg.Role == kanidmv1beta1.RoleWriteReplica || rg.Role == kanidmv1beta1.RoleWriteReplicaNoUI {
			total += rg.Replicas
		}
	}
	return total
}

func int32Ptr(v int32) *int32 { return &v }

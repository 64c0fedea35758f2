package kanidm

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

const (
	configVolumeName = "runtime-config"
	tlsVolumeName    = "tls"
	dataVolumeName   = "data"
	dataMountPath    = "/data"
	tlsMountPath     = "/data/tls"
	configMountPath  = "/data/config"
)

func statefulSetName(k *kanidmv1beta1.Kanidm, rg kanidmv1beta1.ReplicaGroup) string {
	return k.Name + "-" + rg.Name
}

// buildStatefulSet computes the desired StatefulSet for one replica group:
// one container running the declared image, env/args derived from role and
// replication topology, TLS mounted read-only, an emptyDir for runtime
// config, and a headless Service for pod addressability.
func buildStatefulSet(k *kanidmv1beta1.Kanidm, rg kanidmv1beta1.ReplicaGroup) *appsv1.StatefulSet {
	labels := map[string]string{
		"app.kubernetes.io/managed-by":      "kaniop",
		"app.kubernetes.io/name":            "kanidm",
		"app.kubernetes.io/instance":        k.Name,
		"kanidm.kaniop.rs/cluster":          k.Name,
		"kanidm.kaniop.rs/replica-group":    rg.Name,
	}

	env := append([]corev1.EnvVar{}, k.Spec.Env...)
	env = append(env,
		corev1.EnvVar{Name: "KANIDM_DOMAIN", Value: k.Spec.Domain},
		corev1.EnvVar{Name: "KANIDM_ROLE", Value: string(rg.Role)},
	)
	if rg.PrimaryNode != nil && *rg.PrimaryNode {
		env = append(env, corev1.EnvVar{Name: "KANIDM_REPLICATION_PRIMARY", Value: "true"})
	}

	volumes := []corev1.Volume{
		{
			Name:         configVolumeName,
			VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
		},
	}
	mounts := []corev1.VolumeMount{
		{Name: configVolumeName, MountPath: configMountPath},
		{Name: dataVolumeName, MountPath: dataMountPath},
	}

	if k.Spec.TLSSecretName != "" {
		volumes = append(volumes, corev1.Volume{
			Name: tlsVolumeName,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{SecretName: k.Spec.TLSSecretName},
			},
		})
		mounts = append(mounts, corev1.VolumeMount{Name: tlsVolumeName, MountPath: tlsMountPath, ReadOnly: true})
	}

	portName := k.Spec.PortName
	if portName == "" {
		portName = "https"
	}
	ldapPortName := k.Spec.LdapPortName
	if ldapPortName == "" {
		ldapPortName = "ldap"
	}

	container := corev1.Container{
		Name:  "kanidm",
		Image: k.Spec.Image,
		Args:  []string{"server"},
		Env:   env,
		Ports: []corev1.ContainerPort{
			{Name: portName, ContainerPort: 8443},
			{Name: ldapPortName, ContainerPort: 3636},
		},
		VolumeMounts:    mounts,
		Resources:       rg.Resources,
		ReadinessProbe: &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{
					Path:   "/status",
					Port:   intstr.FromInt(8443),
					Scheme: corev1.URISchemeHTTPS,
				},
			},
			InitialDelaySeconds: 5,
			PeriodSeconds:       10,
		},
	}

	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:        statefulSetName(k, rg),
			Namespace:   k.Namespace,
			Labels:      labels,
			Annotations: rg.StatefulSetAnnotations,
		},
		Spec: appsv1.StatefulSetSpec{
			ServiceName: headlessServiceName(k, rg),
			Replicas:    &rg.Replicas,
			Selector:    &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					SecurityContext: k.Spec.SecurityContext,
					Affinity:        rg.Affinity,
					Tolerations:     rg.Tolerations,
					TopologySpreadConstraints: rg.Topology,
					Containers:      []corev1.Container{container},
					Volumes:         volumes,
				},
			},
		},
	}

	applyStorage(sts, k.Spec.Storage)
	return sts
}

// applyStorage wires the one-of storage spec into either a volumes entry
// (emptyDir/ephemeral) or a VolumeClaimTemplate, mutually exclusively.
func applyStorage(sts *appsv1.StatefulSet, storage kanidmv1beta1.StorageSpec) {
	switch {
	case storage.VolumeClaimTemplate != nil:
		sts.Spec.VolumeClaimTemplates = []corev1.PersistentVolumeClaim{
			{
				ObjectMeta: metav1.ObjectMeta{Name: dataVolumeName},
				Spec:       *storage.VolumeClaimTemplate,
			},
		}
	case storage.Ephemeral != nil:
		sts.Spec.Template.Spec.Volumes = append(sts.Spec.Template.Spec.Volumes, corev1.Volume{
			Name:         dataVolumeName,
			VolumeSource: corev1.VolumeSource{Ephemeral: storage.Ephemeral},
		})
	default:
		emptyDir := storage.EmptyDir
		if emptyDir == nil {
			emptyDir = &corev1.EmptyDirVolumeSource{}
		}
		sts.Spec.Template.Spec.Volumes = append(sts.Spec.Template.Spec.Volumes, corev1.Volume{
			Name:         dataVolumeName,
			VolumeSource: corev1.VolumeSource{EmptyDir: emptyDir},
		})
	}
}

package kanidm

import (
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

func TestBuildHeadlessServiceIsClusterIPNone(t *testing.T) {
	k := newTestKanidm()
	rg := kanidmv1beta1.ReplicaGroup{Name: "main", Role: kanidmv1beta1.RoleWriteReplica, Replicas: 1}

	svc := buildHeadlessService(k, rg)
	require.Equal(t, "prod-main-headless", svc.Name)
	require.Equal(t, corev1.ClusterIPNone, svc.Spec.ClusterIP)
	require.Equal(t, "main", svc.Spec.Selector["kanidm.kaniop.rs/replica-group"])
}

func TestBuildGlobalServiceDefaultsToClusterIP(t *testing.T) {
	k := newTestKanidm()
	k.Spec.ReplicaGroups = []kanidmv1beta1.ReplicaGroup{
		{Name: "main", Role: kanidmv1beta1.RoleWriteReplica, Replicas: 1},
	}

	svc := buildGlobalService(k)
	require.Equal(t, "prod", svc.Name)
	require.Equal(t, corev1.ServiceTypeClusterIP, svc.Spec.Type)
	require.Empty(t, svc.Spec.SessionAffinity)
}

func TestBuildGlobalServiceEnablesSessionAffinityWithMultipleWriteReplicas(t *testing.T) {
	k := newTestKanidm()
	k.Spec.ReplicaGroups = []kanidmv1beta1.ReplicaGroup{
		{Name: "a", Role: kanidmv1beta1.RoleWriteReplica, Replicas: 2},
	}

	svc := buildGlobalService(k)
	require.Equal(t, corev1.ServiceAffinityClientIP, svc.Spec.SessionAffinity)
	require.NotNil(t, svc.Spec.SessionAffinityConfig)
	require.Equal(t, int32(10800), *svc.Spec.SessionAffinityConfig.ClientIP.TimeoutSeconds)
}

func TestBuildGlobalServiceNoAffinityWithSingleWriteReplicaAcrossGroups(t *testing.T) {
	k := newTestKanidm()
	k.Spec.ReplicaGroups = []kanidmv1beta1.ReplicaGroup{
		{Name: "a", Role: kanidmv1beta1.RoleWriteReplica, Replicas: 1},
		{Name: "b", Role: kanidmv1beta1.RoleReadReplica, Replicas: 3},
	}

	svc := buildGlobalService(k)
	require.Empty(t, svc.Spec.SessionAffinity)
}

func TestBuildGlobalServiceHonorsExplicitType(t *testing.T) {
	k := newTestKanidm()
	k.Spec.Service.Type = corev1.ServiceTypeLoadBalancer
	k.Spec.Service.Annotations = map[string]string{"lb": "external"}

	svc := buildGlobalService(k)
	require.Equal(t, corev1.ServiceTypeLoadBalancer, svc.Spec.Type)
	require.Equal(t, "external", svc.Annotations["lb"])
}

func TestCountWriteReplicasSumsOnlyWriteRoles(t *testing.T) {
	k := newTestKanidm()
	k.Spec.ReplicaGroups = []kanidmv1beta1.ReplicaGroup{
		{Name: "a", Role: kanidmv1beta1.RoleWriteReplica, Replicas: 2},
		{Name: "b", Role: kanidmv1beta1.RoleWriteReplicaNoUI, Replicas: 1},
		{Name: "c", Role: kanidmv1beta1.RoleReadReplica, Replicas: 5},
	}
	require.Equal(t, int32(3), countWriteReplicas(k))
}

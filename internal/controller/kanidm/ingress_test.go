package kanidm

import (
	"testing"

	"github.com/stretchr/testify/require"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

func TestBuildIngressNilWhenNotConfigured(t *testing.T) {
	k := newTestKanidm()
	require.Nil(t, buildIngress(k))
}

func TestBuildIngressBuildsRuleForDomainAndExtraHosts(t *testing.T) {
	k := newTestKanidm()
	k.Spec.Ingress = &kanidmv1beta1.KanidmIngressSpec{
		ExtraTLSHosts: []string{"alt.example.com"},
	}

	ing := buildIngress(k)
	require.NotNil(t, ing)
	require.Equal(t, "prod", ing.Name)
	require.Len(t, ing.Spec.Rules, 2)
	require.Equal(t, "kanidm.example.com", ing.Spec.Rules[0].Host)
	require.Equal(t, "alt.example.com", ing.Spec.Rules[1].Host)
	require.Empty(t, ing.Spec.TLS)
}

func TestBuildIngressAddsTLSBlockWhenSecretNameSet(t *testing.T) {
	k := newTestKanidm()
	k.Spec.Ingress = &kanidmv1beta1.KanidmIngressSpec{TLSSecretName: "prod-ingress-tls"}

	ing := buildIngress(k)
	require.Len(t, ing.Spec.TLS, 1)
	require.Equal(t, "prod-ingress-tls", ing.Spec.TLS[0].SecretName)
	require.Contains(t, ing.Spec.TLS[0].Hosts, "kanidm.example.com")
}

func TestBuildIngressBacksServiceWithGlobalServiceName(t *testing.T) {
	k := newTestKanidm()
	k.Spec.Ingress = &kanidmv1beta1.KanidmIngressSpec{}

	ing := buildIngress(k)
	backend := ing.Spec.Rules[0].HTTP.Paths[0].Backend.Service
	require.Equal(t, "prod", backend.Name)
	require.Equal(t, "https", backend.Port.Name)
}

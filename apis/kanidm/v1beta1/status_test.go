package v1beta1

import (
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
)

func TestSetErrorStatusClearsReadyOnSuccess(t *testing.T) {
	g := &KanidmGroup{}
	g.SetErrorStatus(trace.NotFound("group not found"))
	g.SetErrorStatus(nil)

	cond := apimeta.FindStatusCondition(g.Status.Conditions, ConditionReady)
	require.NotNil(t, cond)
	require.Equal(t, "True", string(cond.Status))
	require.Equal(t, ReasonReady, cond.Reason)
}

func TestSetErrorStatusClassifiesErrorKinds(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantReason string
	}{
		{"access denied", trace.AccessDenied("bad creds"), ReasonAuthFailed},
		{"not found", trace.NotFound("missing"), ReasonNotReady},
		{"compare failed", trace.CompareFailed("stale"), "Conflict"},
		{"bad parameter", trace.BadParameter("invalid"), ReasonInvalid},
		{"connection problem", trace.ConnectionProblem(nil, "reset"), "Network"},
		{"unclassified", trace.Errorf("boom"), ReasonRemoteError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := &KanidmGroup{}
			g.SetErrorStatus(tc.err)

			cond := apimeta.FindStatusCondition(g.Status.Conditions, ConditionReady)
			require.NotNil(t, cond)
			require.Equal(t, "False", string(cond.Status))
			require.Equal(t, tc.wantReason, cond.Reason)
		})
	}
}

func TestKanidmRefDeepCopy(t *testing.T) {
	ref := &KanidmRef{Name: "prod", Namespace: "kaniop"}
	out := ref.DeepCopy()
	require.Equal(t, ref, out)

	out.Name = "changed"
	require.Equal(t, "prod", ref.Name)
}

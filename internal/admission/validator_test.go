package admission

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	fcache "k8s.io/client-go/tools/cache/testing"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/store"
)

func newTestDecoder(t *testing.T) *admission.Decoder {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, kanidmv1beta1.AddToScheme(scheme))
	return admission.NewDecoder(scheme)
}

func createRequest(t *testing.T, obj kclient.Object) admission.Request {
	t.Helper()
	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	return admission.Request{AdmissionRequest: admissionv1.AdmissionRequest{
		Operation: admissionv1.Create,
		Object:    runtime.RawExtension{Raw: raw},
	}}
}

func TestDuplicateValidatorDeniesSameClusterAndName(t *testing.T) {
	source := fcache.NewFakeControllerSource()
	existing := &kanidmv1beta1.KanidmGroup{
		ObjectMeta: metav1.ObjectMeta{Name: "admins", Namespace: "default"},
		Spec:       kanidmv1beta1.KanidmGroupSpec{KanidmRef: kanidmv1beta1.KanidmRef{Name: "prod"}},
	}
	source.Add(existing)
	st := store.New(source, &kanidmv1beta1.KanidmGroup{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.Run(ctx)
	require.True(t, st.WaitForSync(ctx))

	v := NewDuplicateValidator("KanidmGroup", st, func() bool { return true },
		func() kclient.Object { return &kanidmv1beta1.KanidmGroup{} }, groupRef, newTestDecoder(t))

	candidate := &kanidmv1beta1.KanidmGroup{
		ObjectMeta: metav1.ObjectMeta{Name: "admins", Namespace: "other"},
		Spec:       kanidmv1beta1.KanidmGroupSpec{KanidmRef: kanidmv1beta1.KanidmRef{Name: "prod", Namespace: "other"}},
	}
	resp := v.Handle(ctx, createRequest(t, candidate))
	require.False(t, resp.Allowed)
}

func TestDuplicateValidatorAllowsDistinctNames(t *testing.T) {
	source := fcache.NewFakeControllerSource()
	source.Add(&kanidmv1beta1.KanidmGroup{
		ObjectMeta: metav1.ObjectMeta{Name: "admins", Namespace: "default"},
		Spec:       kanidmv1beta1.KanidmGroupSpec{KanidmRef: kanidmv1beta1.KanidmRef{Name: "prod"}},
	})
	st := store.New(source, &kanidmv1beta1.KanidmGroup{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.Run(ctx)
	require.True(t, st.WaitForSync(ctx))

	v := NewDuplicateValidator("KanidmGroup", st, func() bool { return true },
		func() kclient.Object { return &kanidmv1beta1.KanidmGroup{} }, groupRef, newTestDecoder(t))

	candidate := &kanidmv1beta1.KanidmGroup{
		ObjectMeta: metav1.ObjectMeta{Name: "viewers", Namespace: "default"},
		Spec:       kanidmv1beta1.KanidmGroupSpec{KanidmRef: kanidmv1beta1.KanidmRef{Name: "prod"}},
	}
	resp := v.Handle(ctx, createRequest(t, candidate))
	require.True(t, resp.Allowed)
}

func TestDuplicateValidatorFailsClosedUntilReady(t *testing.T) {
	source := fcache.NewFakeControllerSource()
	st := store.New(source, &kanidmv1beta1.KanidmGroup{}, 0)

	v := NewDuplicateValidator("KanidmGroup", st, func() bool { return false },
		func() kclient.Object { return &kanidmv1beta1.KanidmGroup{} }, groupRef, newTestDecoder(t))

	candidate := &kanidmv1beta1.KanidmGroup{
		ObjectMeta: metav1.ObjectMeta{Name: "admins", Namespace: "default"},
		Spec:       kanidmv1beta1.KanidmGroupSpec{KanidmRef: kanidmv1beta1.KanidmRef{Name: "prod"}},
	}
	resp := v.Handle(context.Background(), createRequest(t, candidate))
	require.False(t, resp.Allowed)
}

func TestDuplicateValidatorAllowsUpdates(t *testing.T) {
	source := fcache.NewFakeControllerSource()
	st := store.New(source, &kanidmv1beta1.KanidmGroup{}, 0)

	v := NewDuplicateValidator("KanidmGroup", st, func() bool { return false },
		func() kclient.Object { return &kanidmv1beta1.KanidmGroup{} }, groupRef, newTestDecoder(t))

	candidate := &kanidmv1beta1.KanidmGroup{
		ObjectMeta: metav1.ObjectMeta{Name: "admins", Namespace: "default"},
		Spec:       kanidmv1beta1.KanidmGroupSpec{KanidmRef: kanidmv1beta1.KanidmRef{Name: "prod"}},
	}
	req := createRequest(t, candidate)
	req.Operation = admissionv1.Update
	resp := v.Handle(context.Background(), req)
	require.True(t, resp.Allowed)
}

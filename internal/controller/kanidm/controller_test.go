package kanidm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/backoff"
	"github.com/pando85/kaniop/internal/clientpool"
	"github.com/pando85/kaniop/internal/controller/base"
	"github.com/pando85/kaniop/internal/sharedcontext"
)

type staticCreds struct{ baseURL string }

func (s staticCreds) Resolve(_ context.Context, _ clientpool.ClusterIdentity) (string, string, string, bool, error) {
	return s.baseURL, "idm_admin", "pw", true, nil
}

func newControllerFixture(t *testing.T, objs ...kclient.Object) kclient.Client {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, appsv1.AddToScheme(scheme))
	require.NoError(t, networkingv1.AddToScheme(scheme))
	require.NoError(t, kanidmv1beta1.AddToScheme(scheme))
	return fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&kanidmv1beta1.Kanidm{}).WithObjects(objs...).Build()
}

func newControllerShared(baseURL string) *sharedcontext.Context {
	pool := clientpool.NewPool(staticCreds{baseURL: baseURL})
	return sharedcontext.New(nil, nil, record.NewFakeRecorder(10), pool, &sharedcontext.Stores{}, backoff.NewCoordinator(), nil)
}

func newReplicationAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		step := body["step"].(map[string]any)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case step["init"] != nil:
			_ = json.NewEncoder(w).Encode(map[string]any{"sessionid": "s"})
		case step["begin"] != nil:
			_ = json.NewEncoder(w).Encode(map[string]any{})
		case step["cred"] != nil:
			_ = json.NewEncoder(w).Encode(map[string]any{"state": map[string]string{"success": "tok"}})
		}
	})
	mux.HandleFunc("/v1/system/replication", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]any{})
	})
	return httptest.NewServer(mux)
}

func simpleCluster() *kanidmv1beta1.Kanidm {
	k := newTestKanidm()
	k.Spec.ReplicaGroups = []kanidmv1beta1.ReplicaGroup{
		{Name: "main", Role: kanidmv1beta1.RoleWriteReplica, Replicas: 1, PrimaryNode: truePtr()},
	}
	return k
}

func findCondition(k *kanidmv1beta1.Kanidm, condType string) *metav1.Condition {
	return apimeta.FindStatusCondition(k.Status.Conditions, condType)
}

func TestDoReconcilesSimpleClusterAndSetsReadyCondition(t *testing.T) {
	srv := newReplicationAuthServer(t)
	defer srv.Close()

	kube := newControllerFixture(t)
	r := New(kube, kube.Scheme()).(Reconciler)
	k := simpleCluster()

	err := r.Do(context.Background(), newControllerShared(srv.URL), k, base.ResourceOpReconcile)
	require.NoError(t, err)

	ready := findCondition(k, kanidmv1beta1.ConditionReady)
	require.NotNil(t, ready)
	require.Equal(t, metav1.ConditionTrue, ready.Status)

	tlsCond := findCondition(k, kanidmv1beta1.ConditionTLSValid)
	require.Equal(t, "no tlsSecretName configured", tlsCond.Message)

	upgradeCond := findCondition(k, kanidmv1beta1.ConditionUpgrading)
	require.Equal(t, metav1.ConditionTrue, upgradeCond.Status)

	replCond := findCondition(k, kanidmv1beta1.ConditionReplicationHealthy)
	require.Equal(t, metav1.ConditionTrue, replCond.Status)

	var sts appsv1.StatefulSet
	require.NoError(t, kube.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "prod-main"}, &sts))

	var headless corev1.Service
	require.NoError(t, kube.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "prod-main-headless"}, &headless))

	var global corev1.Service
	require.NoError(t, kube.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "prod"}, &global))

	var admin corev1.Secret
	require.NoError(t, kube.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "prod-admin"}, &admin))

	require.Equal(t, int32(1), k.Status.Replicas)
	require.Equal(t, "kanidm.example.com", k.Status.Domain)
}

func TestDoRejectsInvalidSpecWithoutCallingOut(t *testing.T) {
	kube := newControllerFixture(t)
	r := New(kube, kube.Scheme()).(Reconciler)
	k := newTestKanidm()
	k.Spec.ReplicaGroups = []kanidmv1beta1.ReplicaGroup{
		{Name: "dup", Role: kanidmv1beta1.RoleReadReplica},
		{Name: "dup", Role: kanidmv1beta1.RoleReadReplica},
	}

	err := r.Do(context.Background(), newControllerShared("http://127.0.0.1:0"), k, base.ResourceOpReconcile)
	require.Error(t, err)

	ready := findCondition(k, kanidmv1beta1.ConditionReady)
	require.NotNil(t, ready)
	require.Equal(t, metav1.ConditionFalse, ready.Status)
	require.Equal(t, kanidmv1beta1.ReasonInvalid, ready.Reason)
}

func TestDoRejectsExcessiveUpgradeSkew(t *testing.T) {
	existing := &appsv1.StatefulSet{}
	existing.Name = "prod-main"
	existing.Namespace = "default"
	existing.Spec.Template.Spec.Containers = []corev1.Container{{Name: "kanidm", Image: "kanidm/server:1.2.3"}}
	kube := newControllerFixture(t, existing)
	r := New(kube, kube.Scheme()).(Reconciler)

	k := simpleCluster()
	k.Spec.Image = "kanidm/server:1.5.0"

	err := r.Do(context.Background(), newControllerShared("http://127.0.0.1:0"), k, base.ResourceOpReconcile)
	require.Error(t, err)

	upgradeCond := findCondition(k, kanidmv1beta1.ConditionUpgrading)
	require.NotNil(t, upgradeCond)
	require.Equal(t, metav1.ConditionFalse, upgradeCond.Status)
	require.Equal(t, kanidmv1beta1.ReasonSkewTooLarge, upgradeCond.Reason)
}

func TestDoDeleteRemovesOwnedObjects(t *testing.T) {
	sts := &appsv1.StatefulSet{}
	sts.Name = "prod-main"
	sts.Namespace = "default"
	headless := &corev1.Service{}
	headless.Name = "prod-main-headless"
	headless.Namespace = "default"
	global := &corev1.Service{}
	global.Name = "prod"
	global.Namespace = "default"
	kube := newControllerFixture(t, sts, headless, global)
	r := New(kube, kube.Scheme()).(Reconciler)

	k := simpleCluster()
	err := r.Do(context.Background(), newControllerShared("http://127.0.0.1:0"), k, base.ResourceOpDelete)
	require.NoError(t, err)

	require.Error(t, kube.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "prod-main"}, &appsv1.StatefulSet{}))
	require.Error(t, kube.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "prod-main-headless"}, &corev1.Service{}))
	require.Error(t, kube.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "prod"}, &corev1.Service{}))
}

func TestDoFlagsTLSNeedsRenewWithinWindow(t *testing.T) {
	secret := &corev1.Secret{
		Data: map[string][]byte{
			corev1.TLSCertKey:       selfSignedCertPEM(t, time.Now().Add(10*24*time.Hour)),
			corev1.TLSPrivateKeyKey: []byte("unused"),
		},
	}
	secret.Name = "prod-tls"
	secret.Namespace = "default"
	srv := newReplicationAuthServer(t)
	defer srv.Close()

	kube := newControllerFixture(t, secret)
	r := New(kube, kube.Scheme()).(Reconciler)

	k := simpleCluster()
	k.Spec.TLSSecretName = "prod-tls"

	err := r.Do(context.Background(), newControllerShared(srv.URL), k, base.ResourceOpReconcile)
	require.NoError(t, err)

	tlsCond := findCondition(k, kanidmv1beta1.ConditionTLSValid)
	require.Equal(t, metav1.ConditionTrue, tlsCond.Status)
	require.Contains(t, tlsCond.Message, "rotation window")
}

package serviceaccount

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
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

func newFixture(t *testing.T, objs ...kclient.Object) kclient.Client {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, kanidmv1beta1.AddToScheme(scheme))
	return fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build()
}

func newShared(baseURL string) *sharedcontext.Context {
	pool := clientpool.NewPool(staticCreds{baseURL: baseURL})
	return sharedcontext.New(nil, nil, record.NewFakeRecorder(10), pool, &sharedcontext.Stores{}, backoff.NewCoordinator(), nil)
}

func newAuthServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
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
	mux.HandleFunc("/v1/service_account/", handler)
	mux.HandleFunc("/v1/service_account", handler)
	return httptest.NewServer(mux)
}

func TestDoGeneratesTokenAndPasswordSecretsOnce(t *testing.T) {
	var tokenCalls, passwordCalls int
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/service_account/svc":
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "svc", "uuid": "u-1"})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/service_account/svc/_api_token":
			tokenCalls++
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/service_account/svc/_generate":
			passwordCalls++
			_ = json.NewEncoder(w).Encode(map[string]any{"password": "pw-1"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	kube := newFixture(t)
	r := New(kube, kube.Scheme()).(Reconciler)

	s := &kanidmv1beta1.KanidmServiceAccount{}
	s.Name = "svc"
	s.Namespace = "default"
	s.Spec.KanidmRef.Name = "cluster"
	s.Spec.TokenGenerate = true
	s.Spec.PasswordGenerate = true

	err := r.Do(context.Background(), newShared(srv.URL), s, base.ResourceOpReconcile)
	require.NoError(t, err)
	require.Equal(t, "u-1", s.Status.Uuid)
	require.Equal(t, "svc-token", s.Status.TokenSecretName)
	require.Equal(t, "svc-password", s.Status.PasswordSecretName)
	require.NotNil(t, s.Status.LastRotated)
	require.Equal(t, 1, tokenCalls)
	require.Equal(t, 1, passwordCalls)

	var tokenSecret corev1.Secret
	require.NoError(t, kube.Get(context.Background(), kclient.ObjectKey{Namespace: "default", Name: "svc-token"}, &tokenSecret))
	require.Equal(t, "tok-1", string(tokenSecret.Data["token"]))

	var pwSecret corev1.Secret
	require.NoError(t, kube.Get(context.Background(), kclient.ObjectKey{Namespace: "default", Name: "svc-password"}, &pwSecret))
	require.Equal(t, "pw-1", string(pwSecret.Data["password"]))

	// Re-converging without force-rotate must not regenerate either secret.
	err = r.Do(context.Background(), newShared(srv.URL), s, base.ResourceOpReconcile)
	require.NoError(t, err)
	require.Equal(t, 1, tokenCalls)
	require.Equal(t, 1, passwordCalls)
}

func TestDoForceRotateRegeneratesAndClearsAnnotation(t *testing.T) {
	var tokenCalls int
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/service_account/svc":
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "svc", "uuid": "u-1"})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/service_account/svc/_api_token":
			tokenCalls++
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok-rotated"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	kube := newFixture(t)
	r := New(kube, kube.Scheme()).(Reconciler)

	s := &kanidmv1beta1.KanidmServiceAccount{}
	s.Name = "svc"
	s.Namespace = "default"
	s.Spec.KanidmRef.Name = "cluster"
	s.Spec.TokenGenerate = true
	s.Status.TokenSecretName = "svc-token"
	s.Annotations = map[string]string{ForceRotateAnnotation: "true"}

	err := r.Do(context.Background(), newShared(srv.URL), s, base.ResourceOpReconcile)
	require.NoError(t, err)
	require.Equal(t, 1, tokenCalls)
	require.NotContains(t, s.Annotations, ForceRotateAnnotation)

	var tokenSecret corev1.Secret
	require.NoError(t, kube.Get(context.Background(), kclient.ObjectKey{Namespace: "default", Name: "svc-token"}, &tokenSecret))
	require.Equal(t, "tok-rotated", string(tokenSecret.Data["token"]))
}

func TestDoDeleteRemovesBothSecrets(t *testing.T) {
	tokenSecret := &corev1.Secret{}
	tokenSecret.Name = "svc-token"
	tokenSecret.Namespace = "default"
	pwSecret := &corev1.Secret{}
	pwSecret.Name = "svc-password"
	pwSecret.Namespace = "default"
	kube := newFixture(t, tokenSecret, pwSecret)
	r := New(kube, kube.Scheme()).(Reconciler)

	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	s := &kanidmv1beta1.KanidmServiceAccount{}
	s.Name = "svc"
	s.Namespace = "default"
	s.Spec.KanidmRef.Name = "cluster"

	err := r.Do(context.Background(), newShared(srv.URL), s, base.ResourceOpDelete)
	require.NoError(t, err)

	require.Error(t, kube.Get(context.Background(), kclient.ObjectKey{Namespace: "default", Name: "svc-token"}, &corev1.Secret{}))
	require.Error(t, kube.Get(context.Background(), kclient.ObjectKey{Namespace: "default", Name: "svc-password"}, &corev1.Secret{}))
}

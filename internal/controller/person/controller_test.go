package person

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/tools/record"

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

func newShared(baseURL string) *sharedcontext.Context {
	pool := clientpool.NewPool(staticCreds{baseURL: baseURL})
	return sharedcontext.New(nil, nil, record.NewFakeRecorder(10), pool, &sharedcontext.Stores{}, backoff.NewCoordinator(), nil)
}

func newAuthServer(t *testing.T, personHandler http.HandlerFunc) *httptest.Server {
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
	mux.HandleFunc("/v1/person/", personHandler)
	mux.HandleFunc("/v1/person", personHandler)
	return httptest.NewServer(mux)
}

func TestDoIssuesCredentialResetTokenOnceAndPublishesOnlyToStatus(t *testing.T) {
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/person/alice":
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "alice", "uuid": "u-1", "displayname": "Alice"})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/person/alice/_credential/_update_intent":
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "reset-tok"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	r := New(nil, nil).(Reconciler)
	p := &kanidmv1beta1.KanidmPersonAccount{}
	p.Name = "alice"
	p.Namespace = "default"
	p.Spec.KanidmRef.Name = "cluster"
	p.Spec.PersonAttributes.Displayname = "Alice"
	p.Spec.CredentialResetTokenTTL = &metav1.Duration{Duration: time.Hour}

	err := r.Do(context.Background(), newShared(srv.URL), p, base.ResourceOpReconcile)
	require.NoError(t, err)
	require.Equal(t, "u-1", p.Status.Uuid)
	require.Equal(t, "/ui/reset?token=reset-tok", p.Status.CredentialResetURL)

	// Re-converging must not request a second token once one is published.
	requestCount := 0
	srv2 := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/person/alice":
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "alice", "uuid": "u-1", "displayname": "Alice"})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/person/alice/_credential/_update_intent":
			requestCount++
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "second-tok"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv2.Close()

	err = r.Do(context.Background(), newShared(srv2.URL), p, base.ResourceOpReconcile)
	require.NoError(t, err)
	require.Equal(t, 0, requestCount)
	require.Equal(t, "/ui/reset?token=reset-tok", p.Status.CredentialResetURL)
}

func TestDoCreatesMissingPerson(t *testing.T) {
	var posted map[string]any
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/person/bob":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/person":
			_ = json.NewDecoder(r.Body).Decode(&posted)
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "bob"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	r := New(nil, nil).(Reconciler)
	p := &kanidmv1beta1.KanidmPersonAccount{}
	p.Name = "bob"
	p.Namespace = "default"
	p.Spec.KanidmRef.Name = "cluster"
	p.Spec.PersonAttributes.Displayname = "Bob"

	err := r.Do(context.Background(), newShared(srv.URL), p, base.ResourceOpReconcile)
	require.NoError(t, err)
	require.Equal(t, "bob", posted["name"])
}

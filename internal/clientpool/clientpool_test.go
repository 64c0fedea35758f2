package clientpool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pando85/kaniop/internal/kanidmapi"
)

func newFakeKanidmServer(t *testing.T, loginCount *int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/auth":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			step := body["step"].(map[string]any)
			switch {
			case step["init"] != nil:
				atomic.AddInt64(loginCount, 1)
				_ = json.NewEncoder(w).Encode(map[string]any{"sessionid": "s"})
			case step["begin"] != nil:
				_ = json.NewEncoder(w).Encode(map[string]any{})
			case step["cred"] != nil:
				_ = json.NewEncoder(w).Encode(map[string]any{"state": map[string]string{"success": "tok"}})
			}
		case r.URL.Path == "/v1/group/alice":
			_ = json.NewEncoder(w).Encode(kanidmapi.Group{Name: "alice"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

type staticCreds struct{ baseURL string }

func (s staticCreds) Resolve(ctx context.Context, id ClusterIdentity) (string, string, string, bool, error) {
	return s.baseURL, "admin", "pw", true, nil
}

func TestWithSessionReusesSessionAcrossCalls(t *testing.T) {
	var logins int64
	srv := newFakeKanidmServer(t, &logins)
	defer srv.Close()

	pool := NewPool(staticCreds{baseURL: srv.URL})
	id := ClusterIdentity{Namespace: "default", Name: "cluster"}

	for i := 0; i < 5; i++ {
		err := pool.WithSession(context.Background(), id, func(c *kanidmapi.Client) error {
			_, err := c.GetGroup(context.Background(), "alice")
			return err
		})
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), atomic.LoadInt64(&logins))
}

func TestWithSessionSingleFlightsConcurrentConstruction(t *testing.T) {
	var logins int64
	srv := newFakeKanidmServer(t, &logins)
	defer srv.Close()

	pool := NewPool(staticCreds{baseURL: srv.URL})
	id := ClusterIdentity{Namespace: "default", Name: "cluster"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.WithSession(context.Background(), id, func(c *kanidmapi.Client) error {
				_, err := c.GetGroup(context.Background(), "alice")
				return err
			})
		}()
	}
	wg.Wait()
	require.Equal(t, int64(1), atomic.LoadInt64(&logins))
}

func TestForgetDropsCachedSession(t *testing.T) {
	var logins int64
	srv := newFakeKanidmServer(t, &logins)
	defer srv.Close()

	pool := NewPool(staticCreds{baseURL: srv.URL})
	id := ClusterIdentity{Namespace: "default", Name: "cluster"}

	require.NoError(t, pool.WithSession(context.Background(), id, func(c *kanidmapi.Client) error { return nil }))
	pool.Forget(id)
	require.NoError(t, pool.WithSession(context.Background(), id, func(c *kanidmapi.Client) error { return nil }))
	require.Equal(t, int64(2), atomic.LoadInt64(&logins))
}

package sharedcontext

import (
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/pando85/kaniop/internal/backoff"
	"github.com/pando85/kaniop/internal/clientpool"
)

func TestNewWiresEveryComponentByReference(t *testing.T) {
	scheme := runtime.NewScheme()
	kube := fake.NewClientBuilder().WithScheme(scheme).Build()
	recorder := record.NewFakeRecorder(1)
	pool := clientpool.NewPool(nil)
	stores := &Stores{}
	coordinator := backoff.NewCoordinator()

	sctx := New(kube, scheme, recorder, pool, stores, coordinator, nil)

	require.Same(t, kube, sctx.Client)
	require.Same(t, scheme, sctx.Scheme)
	require.Same(t, recorder, sctx.Recorder)
	require.Same(t, pool, sctx.Pool)
	require.Same(t, stores, sctx.Stores)
	require.Same(t, coordinator, sctx.Backoff)
	require.Nil(t, sctx.Metrics)
}

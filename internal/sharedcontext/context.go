// Package sharedcontext defines the handle cloned into every reconciler
// invocation, carrying references (never ownership) to the object stores,
// the Kubernetes client, the Kanidm client pool, the event recorder, the
// metrics registry, and the backoff coordinator.
package sharedcontext

import (
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/pando85/kaniop/internal/backoff"
	"github.com/pando85/kaniop/internal/clientpool"
	"github.com/pando85/kaniop/internal/metrics"
	"github.com/pando85/kaniop/internal/store"
)

// Stores groups the Object Store Layer mirrors a reconciler may consult,
// keyed by the Kubernetes kind each mirrors.
type Stores struct {
	Kanidm         *store.Store
	Group          *store.Store
	Person         *store.Store
	OAuth2Client   *store.Store
	ServiceAccount *store.Store
	StatefulSet    *store.Store
	Service        *store.Store
	Ingress        *store.Store
	Secret         *store.Store
}

// Context is the shared handle passed to every reconcile invocation.
type Context struct {
	Client   kclient.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Pool     *clientpool.Pool
	Stores   *Stores
	Backoff  *backoff.Coordinator
	Metrics  *metrics.Registry
}

// New builds a Context from its component parts. Every field is a shared
// reference; callers must not mutate Stores/Pool/Backoff/Metrics after
// construction, only read from or call into them.
func New(
	client kclient.Client,
	scheme *runtime.Scheme,
	recorder record.EventRecorder,
	pool *clientpool.Pool,
	stores *Stores,
	backoffCoordinator *backoff.Coordinator,
	metricsRegistry *metrics.Registry,
) *Context {
	return &Context{
		Client:   client,
		Scheme:   scheme,
		Recorder: recorder,
		Pool:     pool,
		Stores:   stores,
		Backoff:  backoffCoordinator,
		Metrics:  metricsRegistry,
	}
}

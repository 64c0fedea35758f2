// Package store maintains a live, eventually-consistent in-memory mirror of
// one watched Kubernetes kind, generalizing a reconnect-with-
// backoff watch loop to client-go's informer machinery.
package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gravitational/trace"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/cache"
)

// EventKind classifies a change notification.
type EventKind int

const (
	EventAdd EventKind = iota
	EventUpdate
	EventDelete
)

// Event is one change notification delivered on a Store's channel.
type Event struct {
	Kind   EventKind
	Object any
}

const reconnectBackoffCap = 5 * time.Minute

// Store mirrors one Kubernetes kind via a SharedIndexInformer. Reads never
// block on the apiserver: Get/List always serve from the local cache, which
// is eventually consistent with respect to the most recent successful write.
type Store struct {
	informer cache.SharedIndexInformer
	healthy  atomic.Bool
	events   chan Event
}

// New builds a Store backed by lw, watching objects of the shape exampleObj.
func New(lw cache.ListerWatcher, exampleObj runtime.Object, resync time.Duration) *Store {
	informer := cache.NewSharedIndexInformer(lw, exampleObj, resync, cache.Indexers{
		cache.NamespaceIndex: cache.MetaNamespaceIndexFunc,
	})

	s := &Store{
		informer: informer,
		events:   make(chan Event, 256),
	}

	_ = informer.SetWatchErrorHandler(func(_ *cache.Reflector, err error) {
		// The reflector itself already re-lists-then-watches with exponential
		// backoff on any of these; we only need the health transition.
		s.healthy.Store(false)
	})

	informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj any) {
			s.healthy.Store(true)
			s.emit(Event{Kind: EventAdd, Object: obj})
		},
		UpdateFunc: func(_, obj any) {
			s.healthy.Store(true)
			s.emit(Event{Kind: EventUpdate, Object: obj})
		},
		DeleteFunc: func(obj any) {
			if tombstone, ok := obj.(cache.DeletedFinalStateUnknown); ok {
				obj = tombstone.Obj
			}
			s.emit(Event{Kind: EventDelete, Object: obj})
		},
	})

	return s
}

func (s *Store) emit(e Event) {
	select {
	case s.events <- e:
	default:
		// Channel is a best-effort notification fan-out; the indexer below
		// remains the source of truth, so a dropped notification never loses
		// data, only the immediacy of a reconcile trigger.
	}
}

// Events returns the change-notification channel. Updates may coalesce, and
// any notification, deletions included, is dropped while the channel's buffer
// is full; the cached objects themselves stay complete.
func (s *Store) Events() <-chan Event {
	return s.events
}

// Run starts the informer and blocks until ctx is canceled. The informer's
// own reflector already re-lists-then-watches on disconnect with exponential
// backoff (capped well under reconnectBackoffCap by client-go defaults); this
// wrapper only tracks the resulting health transitions.
func (s *Store) Run(ctx context.Context) {
	s.informer.Run(ctx.Done())
}

// WaitForSync blocks until the initial list has completed or ctx is done.
func (s *Store) WaitForSync(ctx context.Context) bool {
	return cache.WaitForCacheSync(ctx.Done(), s.informer.HasSynced)
}

// HasSynced reports, without blocking, whether the initial list has
// completed.
func (s *Store) HasSynced() bool {
	return s.informer.HasSynced()
}

// Healthy reports whether the store's most recent watch attempt is
// connected. It starts false and only becomes true after the first
// successful add/update is observed post-(re)connect.
func (s *Store) Healthy() bool {
	return s.healthy.Load()
}

// GetByKey returns the cached object for "namespace/name", or nil if absent.
func (s *Store) GetByKey(key string) (any, error) {
	obj, exists, err := s.informer.GetIndexer().GetByKey(key)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if !exists {
		return nil, nil
	}
	return obj, nil
}

// List returns a snapshot of every object currently cached.
func (s *Store) List() []any {
	return s.informer.GetIndexer().List()
}

// ByNamespace returns a snapshot of cached objects in namespace.
func (s *Store) ByNamespace(namespace string) ([]any, error) {
	objs, err := s.informer.GetIndexer().ByIndex(cache.NamespaceIndex, namespace)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return objs, nil
}

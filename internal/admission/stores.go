// Package admission runs the standalone admission-webhook HTTPS server that
// rejects duplicate identity-entity creations before they reach the API
// server, reusing the Object Store Layer's reflector pattern independently
// of the operator process.
package admission

import (
	"context"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/tools/cache"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/store"
)

const defaultResync = 10 * time.Minute

// listWatch adapts a controller-runtime watch client into the
// cache.ListerWatcher shape the Object Store Layer's reflector expects,
// generalizing a single-resource watch loop to an arbitrary
// List/Watch-capable client.
func listWatch(kube kclient.WithWatch, newList func() kclient.ObjectList) *cache.ListWatch {
	return &cache.ListWatch{
		ListFunc: func(opts metav1.ListOptions) (runtime.Object, error) {
			list := newList()
			err := kube.List(context.Background(), list, &kclient.ListOptions{Raw: &opts})
			return list, err
		},
		WatchFunc: func(opts metav1.ListOptions) (watch.Interface, error) {
			list := newList()
			return kube.Watch(context.Background(), list, &kclient.ListOptions{Raw: &opts})
		},
	}
}

// Stores mirrors the four identity-entity kinds the validator checks for
// duplicates. Kanidm itself carries no such check: it has no kanidmRef.
type Stores struct {
	Group          *store.Store
	Person         *store.Store
	OAuth2Client   *store.Store
	ServiceAccount *store.Store
}

// NewStores builds one reflector-backed Store per entity kind.
func NewStores(kube kclient.WithWatch) *Stores {
	return &Stores{
		Group: store.New(
			listWatch(kube, func() kclient.ObjectList { return &kanidmv1beta1.KanidmGroupList{} }),
			&kanidmv1beta1.KanidmGroup{}, defaultResync),
		Person: store.New(
			listWatch(kube, func() kclient.ObjectList { return &kanidmv1beta1.KanidmPersonAccountList{} }),
			&kanidmv1beta1.KanidmPersonAccount{}, defaultResync),
		OAuth2Client: store.New(
			listWatch(kube, func() kclient.ObjectList { return &kanidmv1beta1.KanidmOAuth2ClientList{} }),
			&kanidmv1beta1.KanidmOAuth2Client{}, defaultResync),
		ServiceAccount: store.New(
			listWatch(kube, func() kclient.ObjectList { return &kanidmv1beta1.KanidmServiceAccountList{} }),
			&kanidmv1beta1.KanidmServiceAccount{}, defaultResync),
	}
}

// Run starts every store's reflector and blocks until ctx is canceled.
func (s *Stores) Run(ctx context.Context) {
	go s.Group.Run(ctx)
	go s.Person.Run(ctx)
	go s.OAuth2Client.Run(ctx)
	go s.ServiceAccount.Run(ctx)
}

// WaitForSync blocks until every store has completed its initial list, or
// ctx is done.
func (s *Stores) WaitForSync(ctx context.Context) bool {
	return s.Group.WaitForSync(ctx) &&
		s.Person.WaitForSync(ctx) &&
		s.OAuth2Client.WaitForSync(ctx) &&
		s.ServiceAccount.WaitForSync(ctx)
}

// Ready reports whether every store has synced at least once. The admission
// server fails closed while this is false.
func (s *Stores) Ready() bool {
	return s.Group.HasSynced() && s.Person.HasSynced() &&
		s.OAuth2Client.HasSynced() && s.ServiceAccount.HasSynced()
}

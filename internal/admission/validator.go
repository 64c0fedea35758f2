package admission

import (
	"context"
	"fmt"
	"strings"

	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/clientpool"
	"github.com/pando85/kaniop/internal/controller/base"
	"github.com/pando85/kaniop/internal/store"
)

// refExtractor pulls the normalized cluster identity and entity name a CR
// would occupy in Kanidm out of a decoded object.
type refExtractor func(obj kclient.Object) (clientpool.ClusterIdentity, string, error)

// DuplicateValidator rejects CREATE requests that would collide with an
// existing entity of the same kind, same normalized kanidmRef, and same
// name. Any other operation is allowed unconditionally: updates and deletes
// cannot introduce a new collision.
type DuplicateValidator struct {
	kind      string
	store     *store.Store
	ready     func() bool
	newObject func() kclient.Object
	extract   refExtractor
	decoder   *admission.Decoder
}

// NewDuplicateValidator builds a validator for one entity kind.
func NewDuplicateValidator(kind string, st *store.Store, ready func() bool, newObject func() kclient.Object, extract refExtractor, decoder *admission.Decoder) *DuplicateValidator {
	return &DuplicateValidator{kind: kind, store: st, ready: ready, newObject: newObject, extract: extract, decoder: decoder}
}

// Handle implements admission.Handler.
func (v *DuplicateValidator) Handle(_ context.Context, req admission.Request) admission.Response {
	if req.Operation != admission.Create {
		return admission.Allowed("")
	}
	if !v.ready() {
		return admission.Denied(fmt.Sprintf("%s validator is still warming its object store; retry shortly", v.kind))
	}

	obj := v.newObject()
	if err := v.decoder.DecodeRaw(req.Object, obj); err != nil {
		return admission.Errored(400, err)
	}

	wantCluster, wantName, err := v.extract(obj)
	if err != nil {
		return admission.Errored(400, err)
	}

	for _, cached := range v.store.List() {
		existing, ok := cached.(kclient.Object)
		if !ok {
			continue
		}
		gotCluster, gotName, err := v.extract(existing)
		if err != nil {
			continue
		}
		if gotCluster == wantCluster && strings.EqualFold(gotName, wantName) {
			return admission.Denied(fmt.Sprintf(
				"a %s named %q already targets kanidmRef %s/%s (%s/%s)",
				v.kind, wantName, wantCluster.Namespace, wantCluster.Name, existing.GetNamespace(), existing.GetName()))
		}
	}
	return admission.Allowed("")
}

func groupRef(obj kclient.Object) (clientpool.ClusterIdentity, string, error) {
	g, ok := obj.(*kanidmv1beta1.KanidmGroup)
	if !ok {
		return clientpool.ClusterIdentity{}, "", fmt.Errorf("unexpected type %T for kanidmgroup", obj)
	}
	id, err := resolveRef(g.Spec.KanidmRef, g.Namespace, false)
	return id, g.Name, err
}

func personRef(obj kclient.Object) (clientpool.ClusterIdentity, string, error) {
	p, ok := obj.(*kanidmv1beta1.KanidmPersonAccount)
	if !ok {
		return clientpool.ClusterIdentity{}, "", fmt.Errorf("unexpected type %T for kanidmpersonaccount", obj)
	}
	id, err := resolveRef(p.Spec.KanidmRef, p.Namespace, false)
	return id, p.Name, err
}

func oauth2ClientRef(obj kclient.Object) (clientpool.ClusterIdentity, string, error) {
	c, ok := obj.(*kanidmv1beta1.KanidmOAuth2Client)
	if !ok {
		return clientpool.ClusterIdentity{}, "", fmt.Errorf("unexpected type %T for kanidmoauth2client", obj)
	}
	id, err := resolveRef(c.Spec.KanidmRef, c.Namespace, true)
	return id, c.Name, err
}

func serviceAccountRef(obj kclient.Object) (clientpool.ClusterIdentity, string, error) {
	s, ok := obj.(*kanidmv1beta1.KanidmServiceAccount)
	if !ok {
		return clientpool.ClusterIdentity{}, "", fmt.Errorf("unexpected type %T for kanidmserviceaccount", obj)
	}
	id, err := resolveRef(s.Spec.KanidmRef, s.Namespace, false)
	return id, s.Name, err
}

func resolveRef(ref kanidmv1beta1.KanidmRef, ownNamespace string, crossNamespace bool) (clientpool.ClusterIdentity, error) {
	id, err := base.ResolveClusterIdentity(base.KanidmRef{Name: ref.Name, Namespace: ref.Namespace}, ownNamespace, crossNamespace)
	if err != nil {
		// An invalid cross-namespace reference is a terminal validation
		// error the reconciler will also reject. Handle answers an incoming
		// object whose reference does not resolve with a 400 error, and skips
		// cached objects whose reference does not resolve.
		return clientpool.ClusterIdentity{}, err
	}
	return id, nil
}

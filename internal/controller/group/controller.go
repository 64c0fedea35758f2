// Package group reconciles KanidmGroup entities against a Kanidm cluster.
package group

import (
	"context"

	"k8s.io/apimachinery/pkg/runtime"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	gtrace "github.com/gravitational/trace"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/controller/base"
	"github.com/pando85/kaniop/internal/kanidmapi"
	"github.com/pando85/kaniop/internal/sharedcontext"
)

// Reconciler reconciles KanidmGroup objects.
type Reconciler struct {
	client kclient.Client
	scheme *runtime.Scheme
}

// New builds a KanidmGroup resource controller.
func New(client kclient.Client, scheme *runtime.Scheme) base.ReconcilerImpl {
	return Reconciler{client: client, scheme: scheme}
}

func (r Reconciler) GetClient() kclient.Client    { return r.client }
func (r Reconciler) GetScheme() *runtime.Scheme   { return r.scheme }
func (r Reconciler) GetType() kclient.Object      { return &kanidmv1beta1.KanidmGroup{} }
func (r Reconciler) Kind() string                 { return "KanidmGroup" }

//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmgroups,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmgroups/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmgroups/finalizers,verbs=update

// Do converges one KanidmGroup entity against its parent Kanidm cluster.
func (r Reconciler) Do(ctx context.Context, sctx *sharedcontext.Context, obj base.ResourceObject, op base.ResourceOp) error {
	logger := log.FromContext(ctx)
	g := obj.(*kanidmv1beta1.KanidmGroup)

	clusterID, err := base.ResolveClusterIdentity(base.KanidmRef{
		Name:      g.Spec.KanidmRef.Name,
		Namespace: g.Spec.KanidmRef.Namespace,
	}, g.Namespace, false)
	if err != nil {
		return gtrace.Wrap(err)
	}

	return sctx.Pool.WithSession(ctx, clusterID, func(kc *kanidmapi.Client) error {
		switch op {
		case base.ResourceOpDelete:
			logger.Info("deleting group", "name", g.Name)
			err := kc.DeleteGroup(ctx, g.Name)
			if err != nil && kanidmapi.IsNotFound(err) {
				return nil
			}
			return gtrace.Wrap(err)
		case base.ResourceOpReconcile:
			return gtrace.Wrap(r.converge(ctx, kc, g))
		default:
			return gtrace.BadParameter("unknown op %v", op)
		}
	})
}

func (r Reconciler) converge(ctx context.Context, kc *kanidmapi.Client, g *kanidmv1beta1.KanidmGroup) error {
	existing, err := kc.GetGroup(ctx, g.Name)
	if err != nil && !kanidmapi.IsNotFound(err) {
		return gtrace.Wrap(err)
	}

	if existing == nil {
		create := &kanidmapi.Group{
			Name:           g.Name,
			EntryManagedBy: g.Spec.EntryManagedBy,
			Mail:           kanidmapi.NormalizeOrderedSet(g.Spec.Mail),
			Member:         kanidmapi.NormalizeUnorderedSet(g.Spec.Members),
		}
		if g.Spec.PosixAttributes != nil {
			create.GidNumber = g.Spec.PosixAttributes.GidNumber
		}
		if err := kc.CreateGroup(ctx, create); err != nil {
			return gtrace.Wrap(err)
		}
		existing = create
	}

	// Identity attributes before membership.
	if op := kanidmapi.DiffScalar("mail", kanidmapi.NormalizeOrderedSet(g.Spec.Mail), existing.Mail, g.Spec.Mail != nil); op.Kind != kanidmapi.OpNoop {
		if err := applyAttrOp(ctx, kc, g.Name, op); err != nil {
			return gtrace.Wrap(err)
		}
	}
	if op := kanidmapi.DiffScalar("entry_managed_by", g.Spec.EntryManagedBy, existing.EntryManagedBy, g.Spec.EntryManagedBy != ""); op.Kind != kanidmapi.OpNoop {
		if err := applyAttrOp(ctx, kc, g.Name, op); err != nil {
			return gtrace.Wrap(err)
		}
	}
	if op := kanidmapi.DiffScalar("member", kanidmapi.NormalizeUnorderedSet(g.Spec.Members), existing.Member, g.Spec.Members != nil); op.Kind != kanidmapi.OpNoop {
		if err := applyAttrOp(ctx, kc, g.Name, op); err != nil {
			return gtrace.Wrap(err)
		}
	}

	if g.Spec.AccountPolicy != nil {
		policy := map[string]any{}
		if g.Spec.AccountPolicy.AuthSessionExpiry != nil {
			policy["authsession_expiry"] = *g.Spec.AccountPolicy.AuthSessionExpiry
		}
		if g.Spec.AccountPolicy.PrivilegedSessionExpiry != nil {
			policy["privileged_session_expiry"] = *g.Spec.AccountPolicy.PrivilegedSessionExpiry
		}
		if g.Spec.AccountPolicy.CredentialTypeMinimum != "" {
			policy["credential_type_min"] = g.Spec.AccountPolicy.CredentialTypeMinimum
		}
		if len(policy) > 0 {
			if err := kc.SetGroupAccountPolicy(ctx, g.Name, policy); err != nil {
				return gtrace.Wrap(err)
			}
		}
	}

	g.Status.Uuid = existing.Uuid
	return nil
}

func applyAttrOp(ctx context.Context, kc *kanidmapi.Client, name string, op kanidmapi.AttributeOp) error {
	switch op.Kind {
	case kanidmapi.OpSet:
		values, ok := op.Value.([]string)
		if !ok {
			values = []string{op.Value.(string)}
		}
		return kc.SetGroupAttribute(ctx, name, op.Attribute, values)
	case kanidmapi.OpDelete:
		return kc.DeleteGroupAttribute(ctx, name, op.Attribute)
	default:
		return nil
	}
}

// Package person reconciles KanidmPersonAccount entities against a Kanidm cluster.
package person

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

// Reconciler reconciles KanidmPersonAccount objects.
type Reconciler struct {
	client kclient.Client
	scheme *runtime.Scheme
}

// New builds a KanidmPersonAccount resource controller.
func New(client kclient.Client, scheme *runtime.Scheme) base.ReconcilerImpl {
	return Reconciler{client: client, scheme: scheme}
}

func (r Reconciler) GetClient() kclient.Client  { return r.client }
func (r Reconciler) GetScheme() *runtime.Scheme { return r.scheme }
func (r Reconciler) GetType() kclient.Object    { return &kanidmv1beta1.KanidmPersonAccount{} }
func (r Reconciler) Kind() string               { return "KanidmPersonAccount" }

//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmpersonaccounts,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmpersonaccounts/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmpersonaccounts/finalizers,verbs=update

// Do converges one person entity against its parent Kanidm cluster.
func (r Reconciler) Do(ctx context.Context, sctx *sharedcontext.Context, obj base.ResourceObject, op base.ResourceOp) error {
	logger := log.FromContext(ctx)
	p := obj.(*kanidmv1beta1.KanidmPersonAccount)

	clusterID, err := base.ResolveClusterIdentity(base.KanidmRef{
		Name:      p.Spec.KanidmRef.Name,
		Namespace: p.Spec.KanidmRef.Namespace,
	}, p.Namespace, false)
	if err != nil {
		return gtrace.Wrap(err)
	}

	return sctx.Pool.WithSession(ctx, clusterID, func(kc *kanidmapi.Client) error {
		switch op {
		case base.ResourceOpDelete:
			logger.Info("deleting person", "name", p.Name)
			err := kc.DeletePerson(ctx, p.Name)
			if err != nil && kanidmapi.IsNotFound(err) {
				return nil
			}
			return gtrace.Wrap(err)
		case base.ResourceOpReconcile:
			return gtrace.Wrap(r.converge(ctx, kc, p))
		default:
			return gtrace.BadParameter("unknown op %v", op)
		}
	})
}

func (r Reconciler) converge(ctx context.Context, kc *kanidmapi.Client, p *kanidmv1beta1.KanidmPersonAccount) error {
	existing, err := kc.GetPerson(ctx, p.Name)
	if err != nil && !kanidmapi.IsNotFound(err) {
		return gtrace.Wrap(err)
	}

	if existing == nil {
		create := &kanidmapi.Person{
			Name:        p.Name,
			DisplayName: p.Spec.PersonAttributes.Displayname,
			Mail:        kanidmapi.NormalizeOrderedSet(p.Spec.PersonAttributes.Mail),
			LegalName:   p.Spec.PersonAttributes.Legalname,
		}
		if p.Spec.PersonAttributes.AccountValidFrom != nil {
			t := p.Spec.PersonAttributes.AccountValidFrom.Time
			create.AccountValidFrom = &t
		}
		if p.Spec.PersonAttributes.AccountExpire != nil {
			t := p.Spec.PersonAttributes.AccountExpire.Time
			create.AccountExpire = &t
		}
		if p.Spec.PosixAttributes != nil {
			create.GidNumber = p.Spec.PosixAttributes.GidNumber
			create.LoginShell = p.Spec.PosixAttributes.LoginShell
		}
		if err := kc.CreatePerson(ctx, create); err != nil {
			return gtrace.Wrap(err)
		}
		existing = create
	}

	if op := kanidmapi.DiffScalar("displayname", p.Spec.PersonAttributes.Displayname, existing.DisplayName, true); op.Kind != kanidmapi.OpNoop {
		if err := applyAttrOp(ctx, kc, p.Name, op); err != nil {
			return gtrace.Wrap(err)
		}
	}
	if op := kanidmapi.DiffScalar("mail", kanidmapi.NormalizeOrderedSet(p.Spec.PersonAttributes.Mail), existing.Mail, p.Spec.PersonAttributes.Mail != nil); op.Kind != kanidmapi.OpNoop {
		if err := applyAttrOp(ctx, kc, p.Name, op); err != nil {
			return gtrace.Wrap(err)
		}
	}
	if op := kanidmapi.DiffScalar("legalname", p.Spec.PersonAttributes.Legalname, existing.LegalName, p.Spec.PersonAttributes.Legalname != ""); op.Kind != kanidmapi.OpNoop {
		if err := applyAttrOp(ctx, kc, p.Name, op); err != nil {
			return gtrace.Wrap(err)
		}
	}

	p.Status.Uuid = existing.Uuid

	if p.Spec.CredentialResetTokenTTL != nil && p.Status.CredentialResetURL == "" {
		token, err := kc.RequestCredentialResetToken(ctx, p.Name, p.Spec.CredentialResetTokenTTL.Duration)
		if err != nil {
			return gtrace.Wrap(err)
		}
		// Published only via status, never logged or emitted as an Event.
		p.Status.CredentialResetURL = "/ui/reset?token=" + token
	}

	return nil
}

func applyAttrOp(ctx context.Context, kc *kanidmapi.Client, name string, op kanidmapi.AttributeOp) error {
	switch op.Kind {
	case kanidmapi.OpSet:
		values, ok := op.Value.([]string)
		if !ok {
			values = []string{op.Value.(string)}
		}
		return kc.SetPersonAttribute(ctx, name, op.Attribute, values)
	case kanidmapi.OpDelete:
		return kc.DeletePersonAttribute(ctx, name, op.Attribute)
	default:
		return nil
	}
}

// Package serviceaccount reconciles KanidmServiceAccount entities against a
// Kanidm cluster, including the token/password child Secrets it generates.
package serviceaccount

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	gtrace "github.com/gravitational/trace"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/controller/base"
	"github.com/pando85/kaniop/internal/kanidmapi"
	"github.com/pando85/kaniop/internal/sharedcontext"
)

// ForceRotateAnnotation forces regeneration of the token and/or password on
// the next reconcile regardless of whether one already exists.
const ForceRotateAnnotation = "kaniop.rs/force-rotate"

// Reconciler reconciles KanidmServiceAccount objects.
type Reconciler struct {
	client kclient.Client
	scheme *runtime.Scheme
}

// New builds a KanidmServiceAccount resource controller.
func New(client kclient.Client, scheme *runtime.Scheme) base.ReconcilerImpl {
	return Reconciler{client: client, scheme: scheme}
}

func (r Reconciler) GetClient() kclient.Client  { return r.client }
func (r Reconciler) GetScheme() *runtime.Scheme { return r.scheme }
func (r Reconciler) GetType() kclient.Object    { return &kanidmv1beta1.KanidmServiceAccount{} }
func (r Reconciler) Kind() string               { return "KanidmServiceAccount" }

//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmserviceaccounts,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmserviceaccounts/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmserviceaccounts/finalizers,verbs=update
//+kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch;create;update;patch;delete

// Do converges one service account entity against its parent Kanidm cluster.
func (r Reconciler) Do(ctx context.Context, sctx *sharedcontext.Context, obj base.ResourceObject, op base.ResourceOp) error {
	logger := log.FromContext(ctx)
	s := obj.(*kanidmv1beta1.KanidmServiceAccount)

	clusterID, err := base.ResolveClusterIdentity(base.KanidmRef{
		Name:      s.Spec.KanidmRef.Name,
		Namespace: s.Spec.KanidmRef.Namespace,
	}, s.Namespace, false)
	if err != nil {
		return gtrace.Wrap(err)
	}

	return sctx.Pool.WithSession(ctx, clusterID, func(kc *kanidmapi.Client) error {
		switch op {
		case base.ResourceOpDelete:
			logger.Info("deleting service account", "name", s.Name)
			err := kc.DeleteServiceAccount(ctx, s.Name)
			if err != nil && !kanidmapi.IsNotFound(err) {
				return gtrace.Wrap(err)
			}
			return gtrace.Wrap(r.deleteSecrets(ctx, s))
		case base.ResourceOpReconcile:
			return gtrace.Wrap(r.converge(ctx, kc, s))
		default:
			return gtrace.BadParameter("unknown op %v", op)
		}
	})
}

func (r Reconciler) converge(ctx context.Context, kc *kanidmapi.Client, s *kanidmv1beta1.KanidmServiceAccount) error {
	existing, err := kc.GetServiceAccount(ctx, s.Name)
	if err != nil && !kanidmapi.IsNotFound(err) {
		return gtrace.Wrap(err)
	}

	if existing == nil {
		create := &kanidmapi.ServiceAccount{
			Name:           s.Name,
			EntryManagedBy: s.Spec.EntryManagedBy,
			Mail:           kanidmapi.NormalizeOrderedSet(s.Spec.Mail),
		}
		if s.Spec.PosixAttributes != nil {
			create.GidNumber = s.Spec.PosixAttributes.GidNumber
		}
		if err := kc.CreateServiceAccount(ctx, create); err != nil {
			return gtrace.Wrap(err)
		}
		existing = create
	}

	if op := kanidmapi.DiffScalar("entry_managed_by", s.Spec.EntryManagedBy, existing.EntryManagedBy, s.Spec.EntryManagedBy != ""); op.Kind != kanidmapi.OpNoop {
		if op.Kind == kanidmapi.OpSet {
			values, ok := op.Value.([]string)
			if !ok {
				values = []string{op.Value.(string)}
			}
			if err := kc.SetServiceAccountAttribute(ctx, s.Name, "entry_managed_by", values); err != nil {
				return gtrace.Wrap(err)
			}
		}
	}
	if op := kanidmapi.DiffScalar("mail", kanidmapi.NormalizeOrderedSet(s.Spec.Mail), existing.Mail, s.Spec.Mail != nil); op.Kind != kanidmapi.OpNoop {
		if op.Kind == kanidmapi.OpSet {
			values, ok := op.Value.([]string)
			if !ok {
				values = []string{op.Value.(string)}
			}
			if err := kc.SetServiceAccountAttribute(ctx, s.Name, "mail", values); err != nil {
				return gtrace.Wrap(err)
			}
		}
	}

	s.Status.Uuid = existing.Uuid

	forceRotate := s.Annotations[ForceRotateAnnotation] != ""

	if s.Spec.TokenGenerate && (forceRotate || s.Status.TokenSecretName == "") {
		token, err := kc.GenerateAPIToken(ctx, s.Name, s.Name+"-kaniop")
		if err != nil {
			return gtrace.Wrap(err)
		}
		if err := r.publishSecret(ctx, s, tokenSecretName(s), map[string][]byte{"token": []byte(token)}); err != nil {
			return gtrace.Wrap(err)
		}
		s.Status.TokenSecretName = tokenSecretName(s)
	}

	if s.Spec.PasswordGenerate && (forceRotate || s.Status.PasswordSecretName == "") {
		password, err := kc.GeneratePassword(ctx, s.Name)
		if err != nil {
			return gtrace.Wrap(err)
		}
		if err := r.publishSecret(ctx, s, passwordSecretName(s), map[string][]byte{"password": []byte(password)}); err != nil {
			return gtrace.Wrap(err)
		}
		s.Status.PasswordSecretName = passwordSecretName(s)
	}

	if forceRotate {
		delete(s.Annotations, ForceRotateAnnotation)
	}
	if s.Status.TokenSecretName != "" || s.Status.PasswordSecretName != "" {
		now := metav1.Now()
		s.Status.LastRotated = &now
	}

	return nil
}

func tokenSecretName(s *kanidmv1beta1.KanidmServiceAccount) string    { return s.Name + "-token" }
func passwordSecretName(s *kanidmv1beta1.KanidmServiceAccount) string { return s.Name + "-password" }

// publishSecret replaces the named child Secret's data wholesale: old token
// or password versions are never retained once a new one is generated.
func (r Reconciler) publishSecret(ctx context.Context, s *kanidmv1beta1.KanidmServiceAccount, name string, data map[string][]byte) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: s.Namespace,
		},
	}
	_, err := controllerutil.CreateOrPatch(ctx, r.client, secret, func() error {
		secret.Data = data
		return controllerutil.SetControllerReference(s, secret, r.scheme)
	})
	return gtrace.Wrap(err)
}

func (r Reconciler) deleteSecrets(ctx context.Context, s *kanidmv1beta1.KanidmServiceAccount) error {
	for _, name := range []string{tokenSecretName(s), passwordSecretName(s)} {
		secret := &corev1.Secret{}
		err := r.client.Get(ctx, types.NamespacedName{Namespace: s.Namespace, Name: name}, secret)
		if apierrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return gtrace.Wrap(err)
		}
		if err := r.client.Delete(ctx, secret); err != nil && !apierrors.IsNotFound(err) {
			return gtrace.Wrap(err)
		}
	}
	return nil
}

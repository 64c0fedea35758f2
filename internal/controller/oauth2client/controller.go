// Package oauth2client reconciles KanidmOAuth2Client entities against a
// Kanidm cluster and the child Secret carrying client_id/client_secret.
package oauth2client

import (
	"context"
	"sort"

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

// ForceRotateAnnotation, when present on a KanidmOAuth2Client, forces a
// client_secret rotation on the next reconcile regardless of age.
const ForceRotateAnnotation = "kaniop.rs/force-rotate"

// Reconciler reconciles KanidmOAuth2Client objects.
type Reconciler struct {
	client kclient.Client
	scheme *runtime.Scheme
}

// New builds a KanidmOAuth2Client resource controller.
func New(client kclient.Client, scheme *runtime.Scheme) base.ReconcilerImpl {
	return Reconciler{client: client, scheme: scheme}
}

func (r Reconciler) GetClient() kclient.Client  { return r.client }
func (r Reconciler) GetScheme() *runtime.Scheme { return r.scheme }
func (r Reconciler) GetType() kclient.Object    { return &kanidmv1beta1.KanidmOAuth2Client{} }
func (r Reconciler) Kind() string               { return "KanidmOAuth2Client" }

//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmoauth2clients,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmoauth2clients/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidmoauth2clients/finalizers,verbs=update
//+kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch;create;update;patch;delete

// Do converges one OAuth2 resource server against its parent Kanidm cluster.
// KanidmRef may cross namespaces for this kind, unlike the other three
// entity kinds.
func (r Reconciler) Do(ctx context.Context, sctx *sharedcontext.Context, obj base.ResourceObject, op base.ResourceOp) error {
	logger := log.FromContext(ctx)
	o := obj.(*kanidmv1beta1.KanidmOAuth2Client)

	clusterID, err := base.ResolveClusterIdentity(base.KanidmRef{
		Name:      o.Spec.KanidmRef.Name,
		Namespace: o.Spec.KanidmRef.Namespace,
	}, o.Namespace, true)
	if err != nil {
		return gtrace.Wrap(err)
	}

	return sctx.Pool.WithSession(ctx, clusterID, func(kc *kanidmapi.Client) error {
		switch op {
		case base.ResourceOpDelete:
			logger.Info("deleting oauth2 client", "name", o.Name)
			err := kc.DeleteOAuth2Client(ctx, o.Name)
			if err != nil && !kanidmapi.IsNotFound(err) {
				return gtrace.Wrap(err)
			}
			return gtrace.Wrap(r.deleteSecret(ctx, o))
		case base.ResourceOpReconcile:
			return gtrace.Wrap(r.converge(ctx, kc, o))
		default:
			return gtrace.BadParameter("unknown op %v", op)
		}
	})
}

func (r Reconciler) converge(ctx context.Context, kc *kanidmapi.Client, o *kanidmv1beta1.KanidmOAuth2Client) error {
	existing, err := kc.GetOAuth2Client(ctx, o.Name)
	if err != nil && !kanidmapi.IsNotFound(err) {
		return gtrace.Wrap(err)
	}

	var secret string
	if existing == nil {
		create := &kanidmapi.OAuth2Client{
			Name:                           o.Name,
			DisplayName:                    o.Spec.Displayname,
			Origin:                         o.Spec.Origin,
			RedirectUrl:                    append([]string(nil), o.Spec.RedirectUrl...),
			Public:                         o.Spec.Public,
			StrictRedirectUrl:              o.Spec.StrictRedirectUrl,
			PreferShortUsername:            o.Spec.PreferShortUsername,
			AllowLocalhostRedirect:         o.Spec.AllowLocalhostRedirect,
			AllowInsecureClientDisablePkce: o.Spec.AllowInsecureClientDisablePkce,
			JwtLegacyCryptoEnable:          o.Spec.JwtLegacyCryptoEnable,
		}
		if err := kc.CreateOAuth2Client(ctx, create); err != nil {
			return gtrace.Wrap(err)
		}
		existing = create
		secret = create.ClientSecret
	}

	// Identity attributes before scopes, scopes before claims.
	patch := map[string]any{}
	if o.Spec.Displayname != existing.DisplayName {
		patch["displayname"] = []string{o.Spec.Displayname}
	}
	if o.Spec.Origin != existing.Origin {
		patch["origin"] = []string{o.Spec.Origin}
	}
	if !kanidmapi.SetsEqual(kanidmapi.NormalizeUnorderedSet(o.Spec.RedirectUrl), kanidmapi.NormalizeUnorderedSet(existing.RedirectUrl)) {
		patch["redirect_url"] = o.Spec.RedirectUrl
	}
	if len(patch) > 0 {
		if err := kc.UpdateOAuth2ClientAttrs(ctx, o.Name, patch); err != nil {
			return gtrace.Wrap(err)
		}
	}

	if err := r.reconcileScopeMap(ctx, o.Name, o.Spec.ScopeMap, existing.ScopeMap, kc.SetScopeMap); err != nil {
		return gtrace.Wrap(err)
	}
	if err := r.reconcileScopeMap(ctx, o.Name, o.Spec.SupScopeMap, existing.SupScopeMap, kc.SetSupScopeMap); err != nil {
		return gtrace.Wrap(err)
	}
	if err := r.reconcileClaimMap(ctx, kc, o.Name, o.Spec.ClaimMap, existing.ClaimMap); err != nil {
		return gtrace.Wrap(err)
	}

	o.Status.Uuid = existing.Uuid

	forceRotate := o.Annotations[ForceRotateAnnotation] != ""
	if secret != "" || forceRotate || o.Status.SecretName == "" {
		if forceRotate && secret == "" {
			rotated, err := kc.RotateClientSecret(ctx, o.Name)
			if err != nil {
				return gtrace.Wrap(err)
			}
			secret = rotated
		}
		if secret != "" {
			if err := r.publishSecret(ctx, o, secret); err != nil {
				return gtrace.Wrap(err)
			}
		}
	}

	return nil
}

type scopeSetter func(ctx context.Context, name, group string, scopes []string) error

func (r Reconciler) reconcileScopeMap(ctx context.Context, name string, desired, remote []kanidmapi.ScopeMapEntry, set scopeSetter) error {
	desiredByGroup := map[string][]string{}
	for _, e := range desired {
		desiredByGroup[e.Group] = kanidmapi.NormalizeUnorderedSet(e.Scopes)
	}
	remoteByGroup := map[string][]string{}
	for _, e := range remote {
		remoteByGroup[e.Group] = kanidmapi.NormalizeUnorderedSet(e.Scopes)
	}

	groups := make([]string, 0, len(desiredByGroup))
	for g := range desiredByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		if !kanidmapi.SetsEqual(desiredByGroup[g], remoteByGroup[g]) {
			if err := set(ctx, name, g, desiredByGroup[g]); err != nil {
				return gtrace.Wrap(err)
			}
		}
	}

	// Groups present remotely but absent from the desired object are left
	// alone: this controller never deletes an attribute it was never told
	// about.
	return nil
}

func (r Reconciler) reconcileClaimMap(ctx context.Context, kc *kanidmapi.Client, name string, desired []kanidmv1beta1.ClaimMapEntry, remote []kanidmapi.ClaimMapEntry) error {
	remoteByName := map[string]kanidmapi.ClaimMapEntry{}
	for _, c := range remote {
		remoteByName[c.Name] = c
	}

	for _, claim := range desired {
		remoteClaim := remoteByName[claim.Name]
		remoteByGroup := map[string]kanidmapi.ClaimValue{}
		for _, v := range remoteClaim.ValuesMap {
			remoteByGroup[v.Group] = v
		}
		for _, v := range claim.ValuesMap {
			join := string(v.JoinStrategy)
			if join == "" {
				join = string(kanidmv1beta1.ClaimJoinArray)
			}
			rv, ok := remoteByGroup[v.Group]
			if ok && kanidmapi.SetsEqual(kanidmapi.NormalizeUnorderedSet(v.Values), kanidmapi.NormalizeUnorderedSet(rv.Values)) && rv.JoinStrategy == join {
				continue
			}
			if err := kc.SetClaimMap(ctx, name, claim.Name, v.Group, v.Values, join); err != nil {
				return gtrace.Wrap(err)
			}
		}
	}
	return nil
}

func secretName(o *kanidmv1beta1.KanidmOAuth2Client) string {
	return o.Name + "-oauth2"
}

func (r Reconciler) publishSecret(ctx context.Context, o *kanidmv1beta1.KanidmOAuth2Client, clientSecret string) error {
	name := secretName(o)
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: o.Namespace,
		},
	}
	_, err := controllerutil.CreateOrPatch(ctx, r.client, secret, func() error {
		if secret.Data == nil {
			secret.Data = map[string][]byte{}
		}
		secret.Data["client_id"] = []byte(o.Name)
		secret.Data["client_secret"] = []byte(clientSecret)
		return controllerutil.SetControllerReference(o, secret, r.scheme)
	})
	if err != nil {
		return gtrace.Wrap(err)
	}

	delete(o.Annotations, ForceRotateAnnotation)
	o.Status.SecretName = name
	now := metav1.Now()
	o.Status.LastRotated = &now
	return nil
}

func (r Reconciler) deleteSecret(ctx context.Context, o *kanidmv1beta1.KanidmOAuth2Client) error {
	secret := &corev1.Secret{}
	err := r.client.Get(ctx, types.NamespacedName{Namespace: o.Namespace, Name: secretName(o)}, secret)
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return gtrace.Wrap(err)
	}
	if err := r.client.Delete(ctx, secret); err != nil && !apierrors.IsNotFound(err) {
		return gtrace.Wrap(err)
	}
	return nil
}

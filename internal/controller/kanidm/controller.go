// Package kanidm reconciles the Kanidm cluster CR: its bootstrap secrets,
// TLS acceptance, per-replica-group StatefulSets, Services, Ingress,
// upgrade gating, and replication wiring.
package kanidm

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	gtrace "github.com/gravitational/trace"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/clientpool"
	"github.com/pando85/kaniop/internal/controller/base"
	"github.com/pando85/kaniop/internal/kanidmapi"
	"github.com/pando85/kaniop/internal/sharedcontext"
)

// Reconciler reconciles Kanidm cluster objects.
type Reconciler struct {
	client kclient.Client
	scheme *runtime.Scheme
}

// New builds a Kanidm cluster resource controller.
func New(client kclient.Client, scheme *runtime.Scheme) base.ReconcilerImpl {
	return Reconciler{client: client, scheme: scheme}
}

func (r Reconciler) GetClient() kclient.Client  { return r.client }
func (r Reconciler) GetScheme() *runtime.Scheme { return r.scheme }
func (r Reconciler) GetType() kclient.Object    { return &kanidmv1beta1.Kanidm{} }
func (r Reconciler) Kind() string               { return "Kanidm" }

//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidms,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidms/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=kaniop.rs,resources=kanidms/finalizers,verbs=update
//+kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups="",resources=services,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=apps,resources=statefulsets,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=networking.k8s.io,resources=ingresses,verbs=get;list;watch;create;update;patch;delete

// Do runs the eight reconcile steps in order, stopping at the first
// terminal (Invalid) or retryable error.
func (r Reconciler) Do(ctx context.Context, sctx *sharedcontext.Context, obj base.ResourceObject, op base.ResourceOp) error {
	logger := log.FromContext(ctx)
	k := obj.(*kanidmv1beta1.Kanidm)
	clusterID := clientpool.ClusterIdentity{Namespace: k.Namespace, Name: k.Name}

	if op == base.ResourceOpDelete {
		logger.Info("deleting kanidm cluster", "name", k.Name)
		sctx.Pool.Forget(clusterID)
		return gtrace.Wrap(r.deleteOwnedObjects(ctx, k))
	}

	// Step 1: validate.
	if err := validate(k); err != nil {
		apimeta.SetStatusCondition(&k.Status.Conditions, metav1.Condition{
			Type:    kanidmv1beta1.ConditionReady,
			Status:  metav1.ConditionFalse,
			Reason:  kanidmv1beta1.ReasonInvalid,
			Message: err.Error(),
		})
		return gtrace.BadParameter("%s", err.Error())
	}

	// Step 2: bootstrap secrets.
	created, err := ensureBootstrapSecret(ctx, r.client, r.scheme, k)
	if err != nil {
		apimeta.SetStatusCondition(&k.Status.Conditions, metav1.Condition{
			Type: kanidmv1beta1.ConditionInitialized, Status: metav1.ConditionFalse,
			Reason: kanidmv1beta1.ReasonRemoteError, Message: err.Error(),
		})
		return gtrace.Wrap(err)
	}
	if created {
		apimeta.SetStatusCondition(&k.Status.Conditions, metav1.Condition{
			Type: kanidmv1beta1.ConditionInitialized, Status: metav1.ConditionTrue,
			Reason: kanidmv1beta1.ReasonInitialized, Message: "bootstrap admin credentials generated",
		})
	}

	// Step 3: TLS secret.
	tlsStatus, err := checkTLSSecret(ctx, r.client, k.Namespace, k.Spec.TLSSecretName)
	if err != nil {
		return gtrace.Wrap(err)
	}
	tlsCondition := metav1.Condition{Type: kanidmv1beta1.ConditionTLSValid, Status: metav1.ConditionFalse, Reason: kanidmv1beta1.ReasonNotReady, Message: "tlsSecretName not yet provided or not found"}
	if k.Spec.TLSSecretName == "" {
		tlsCondition.Message = "no tlsSecretName configured"
	} else if tlsStatus.Present {
		tlsCondition.Status = metav1.ConditionTrue
		tlsCondition.Reason = kanidmv1beta1.ReasonTLSValid
		tlsCondition.Message = "tls secret accepted"
		if tlsStatus.NeedsRenew {
			tlsCondition.Message = "tls certificate is within the 30 day rotation window"
		}
	}
	apimeta.SetStatusCondition(&k.Status.Conditions, tlsCondition)

	// Step 4: per-replica-group StatefulSets, headless + group Services.
	runningImage, err := r.currentImage(ctx, k)
	if err != nil {
		return gtrace.Wrap(err)
	}
	for _, rg := range k.Spec.ReplicaGroups {
		if err := r.applyStatefulSet(ctx, k, rg); err != nil {
			return gtrace.Wrap(err)
		}
		if err := r.applyHeadlessService(ctx, k, rg); err != nil {
			return gtrace.Wrap(err)
		}
	}

	// Step 5: global Service and Ingress.
	if err := r.applyGlobalService(ctx, k); err != nil {
		return gtrace.Wrap(err)
	}
	if err := r.applyIngress(ctx, k); err != nil {
		return gtrace.Wrap(err)
	}

	// Step 6: upgrade pre-check.
	upgradeCondition := metav1.Condition{Type: kanidmv1beta1.ConditionUpgrading, Status: metav1.ConditionTrue, Reason: kanidmv1beta1.ReasonReady, Message: "no upgrade in progress"}
	if runningImage != "" && runningImage != k.Spec.Image {
		if err := checkUpgradeSkew(runningImage, k.Spec.Image); err != nil {
			upgradeCondition = metav1.Condition{Type: kanidmv1beta1.ConditionUpgrading, Status: metav1.ConditionFalse, Reason: kanidmv1beta1.ReasonSkewTooLarge, Message: err.Error()}
			apimeta.SetStatusCondition(&k.Status.Conditions, upgradeCondition)
			return gtrace.BadParameter("%s", err.Error())
		}
		if !isPatchOnlyUpgrade(runningImage, k.Spec.Image) {
			upgradeCondition.Message = "same-minor upgrade pending pre-check probe"
		}
	}
	apimeta.SetStatusCondition(&k.Status.Conditions, upgradeCondition)

	// Steps 7-8 require an authenticated session, once bootstrap exists.
	err = sctx.Pool.WithSession(ctx, clusterID, func(kc *kanidmapi.Client) error {
		replResult, err := reconcileReplication(ctx, r.client, kc, k)
		if err != nil {
			return gtrace.Wrap(err)
		}
		replCondition := metav1.Condition{Type: kanidmv1beta1.ConditionReplicationHealthy, Status: metav1.ConditionTrue, Reason: kanidmv1beta1.ReasonReplication, Message: "all replication peers reachable"}
		if !replResult.Healthy {
			replCondition.Status = metav1.ConditionFalse
			replCondition.Reason = "PeerUnreachable"
			replCondition.Message = "replication peer unreachable: " + replResult.UnreachablePeer
		}
		apimeta.SetStatusCondition(&k.Status.Conditions, replCondition)
		return nil
	})
	if err != nil && gtrace.IsConnectionProblem(err) {
		// The session itself cannot be established: report Initialized=False
		// and fail the reconcile so it backs off.
		apimeta.SetStatusCondition(&k.Status.Conditions, metav1.Condition{
			Type: kanidmv1beta1.ConditionInitialized, Status: metav1.ConditionFalse,
			Reason: kanidmv1beta1.ReasonRemoteError, Message: err.Error(),
		})
		return gtrace.Wrap(err)
	}
	if err != nil {
		// Other replication wiring failures are logged, not treated as a
		// reconcile error.
		logger.Error(err, "replication wiring failed", "cluster", k.Name)
	}

	// Step 8: aggregate status.
	k.Status.Replicas = totalReplicas(k)
	k.Status.Domain = k.Spec.Domain
	apimeta.SetStatusCondition(&k.Status.Conditions, metav1.Condition{
		Type: kanidmv1beta1.ConditionReady, Status: metav1.ConditionTrue,
		Reason: kanidmv1beta1.ReasonReady, Message: "reconciled successfully",
	})

	return nil
}

func totalReplicas(k *kanidmv1beta1.Kanidm) int32 {
	var total int32
	for _, rg := range k.Spec.ReplicaGroups {
		total += rg.Replicas
	}
	return total
}

// currentImage reads the image of an arbitrary owned StatefulSet as the
// "running" version for the upgrade pre-check; absence means first reconcile.
func (r Reconciler) currentImage(ctx context.Context, k *kanidmv1beta1.Kanidm) (string, error) {
	if len(k.Spec.ReplicaGroups) == 0 {
		return "", nil
	}
	sts := &appsv1.StatefulSet{}
	err := r.client.Get(ctx, types.NamespacedName{Namespace: k.Namespace, Name: statefulSetName(k, k.Spec.ReplicaGroups[0])}, sts)
	if err != nil {
		return "", nil
	}
	if len(sts.Spec.Template.Spec.Containers) == 0 {
		return "", nil
	}
	return sts.Spec.Template.Spec.Containers[0].Image, nil
}

func (r Reconciler) applyStatefulSet(ctx context.Context, k *kanidmv1beta1.Kanidm, rg kanidmv1beta1.ReplicaGroup) error {
	desired := buildStatefulSet(k, rg)
	sts := &appsv1.StatefulSet{ObjectMeta: metav1.ObjectMeta{Name: desired.Name, Namespace: desired.Namespace}}
	_, err := controllerutil.CreateOrPatch(ctx, r.client, sts, func() error {
		sts.Labels = desired.Labels
		sts.Annotations = desired.Annotations
		sts.Spec = desired.Spec
		return controllerutil.SetControllerReference(k, sts, r.scheme)
	})
	return gtrace.Wrap(err)
}

func (r Reconciler) applyHeadlessService(ctx context.Context, k *kanidmv1beta1.Kanidm, rg kanidmv1beta1.ReplicaGroup) error {
	desired := buildHeadlessService(k, rg)
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: desired.Name, Namespace: desired.Namespace}}
	_, err := controllerutil.CreateOrPatch(ctx, r.client, svc, func() error {
		svc.Labels = desired.Labels
		clusterIP := svc.Spec.ClusterIP
		svc.Spec = desired.Spec
		svc.Spec.ClusterIP = clusterIP
		return controllerutil.SetControllerReference(k, svc, r.scheme)
	})
	return gtrace.Wrap(err)
}

func (r Reconciler) applyGlobalService(ctx context.Context, k *kanidmv1beta1.Kanidm) error {
	desired := buildGlobalService(k)
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: desired.Name, Namespace: desired.Namespace}}
	_, err := controllerutil.CreateOrPatch(ctx, r.client, svc, func() error {
		svc.Labels = desired.Labels
		svc.Annotations = desired.Annotations
		clusterIP := svc.Spec.ClusterIP
		svc.Spec = desired.Spec
		svc.Spec.ClusterIP = clusterIP
		return controllerutil.SetControllerReference(k, svc, r.scheme)
	})
	return gtrace.Wrap(err)
}

func (r Reconciler) applyIngress(ctx context.Context, k *kanidmv1beta1.Kanidm) error {
	desired := buildIngress(k)
	if desired == nil {
		ing := &networkingv1.Ingress{}
		err := r.client.Get(ctx, types.NamespacedName{Namespace: k.Namespace, Name: ingressName(k)}, ing)
		if err == nil {
			return gtrace.Wrap(r.client.Delete(ctx, ing))
		}
		return nil
	}
	ing := &networkingv1.Ingress{ObjectMeta: metav1.ObjectMeta{Name: desired.Name, Namespace: desired.Namespace}}
	_, err := controllerutil.CreateOrPatch(ctx, r.client, ing, func() error {
		ing.Labels = desired.Labels
		ing.Annotations = desired.Annotations
		ing.Spec = desired.Spec
		return controllerutil.SetControllerReference(k, ing, r.scheme)
	})
	return gtrace.Wrap(err)
}

// deleteOwnedObjects removes StatefulSets/Services/Ingress before finalizer
// removal; bootstrap/TLS Secrets are retained.
func (r Reconciler) deleteOwnedObjects(ctx context.Context, k *kanidmv1beta1.Kanidm) error {
	for _, rg := range k.Spec.ReplicaGroups {
		sts := &appsv1.StatefulSet{ObjectMeta: metav1.ObjectMeta{Name: statefulSetName(k, rg), Namespace: k.Namespace}}
		if err := r.client.Delete(ctx, sts); err != nil && !isNotFoundErr(err) {
			return gtrace.Wrap(err)
		}
		headless := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: headlessServiceName(k, rg), Namespace: k.Namespace}}
		if err := r.client.Delete(ctx, headless); err != nil && !isNotFoundErr(err) {
			return gtrace.Wrap(err)
		}
	}
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: globalServiceName(k), Namespace: k.Namespace}}
	if err := r.client.Delete(ctx, svc); err != nil && !isNotFoundErr(err) {
		return gtrace.Wrap(err)
	}
	ing := &networkingv1.Ingress{ObjectMeta: metav1.ObjectMeta{Name: ingressName(k), Namespace: k.Namespace}}
	if err := r.client.Delete(ctx, ing); err != nil && !isNotFoundErr(err) {
		return gtrace.Wrap(err)
	}
	return nil
}

func isNotFoundErr(err error) bool {
	return kclient.IgnoreNotFound(err) == nil
}

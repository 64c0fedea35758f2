// Package base generalizes a single-client reconciler dispatcher into the
// shape every controller in this operator shares: resolve a
// parent Kanidm cluster, acquire a pooled session, converge one entity, and
// patch only the /status subresource.
package base

import (
	"context"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otrace "go.opentelemetry.io/otel/trace"

	gtrace "github.com/gravitational/trace"

	backoffpkg "github.com/pando85/kaniop/internal/backoff"
	"github.com/pando85/kaniop/internal/sharedcontext"
)

// DeletionFinalizer is added to every CR's 'finalizers' field so deletion is
// observable and cleanup runs exactly once.
const DeletionFinalizer = "kaniop.rs/deletion"

// DefaultMaxConcurrentReconciles is the default bounded worker count per
// controlled kind (§5).
const DefaultMaxConcurrentReconciles = 4

// ResourceObject is a CR being reconciled: Kanidm, or one of the four
// identity-entity kinds.
type ResourceObject interface {
	kclient.Object
	SetErrorStatus(error)
}

// ResourceOp is the operation the outer Reconciler asks Do to perform.
type ResourceOp int

const (
	ResourceOpInvalid ResourceOp = iota - 1
	// ResourceOpReconcile converges the object's declared and observed state.
	ResourceOpReconcile
	// ResourceOpDelete runs cleanup ahead of finalizer removal.
	ResourceOpDelete
)

// ReconcilerImpl is implemented once per controlled kind.
type ReconcilerImpl interface {
	GetClient() kclient.Client
	GetScheme() *runtime.Scheme
	GetType() kclient.Object
	// Kind names the controlled kind for metrics, backoff keys, and tracing.
	Kind() string
	// Do converges object. A nil return clears backoff and status errors.
	Do(ctx context.Context, sctx *sharedcontext.Context, object ResourceObject, op ResourceOp) error
}

// Reconciler is the generic dispatcher: finalizer handling, backoff-gated
// requeue, status patch, and a trace span wrap every invocation, leaving
// ReconcilerImpl.Do to hold only kind-specific convergence logic.
type Reconciler struct {
	ReconcilerImpl
	Shared *sharedcontext.Context
}

var tracer = otel.Tracer("github.com/pando85/kaniop/internal/controller/base")

// Reconcile implements the controller-runtime reconcile.Reconciler interface.
func (r Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	kind := r.Kind()

	ctx, span := tracer.Start(ctx, "Reconcile",
		otrace.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("namespace", req.Namespace),
			attribute.String("name", req.Name),
		))
	defer span.End()

	key := backoffpkg.Key{Kind: kind, Namespace: req.Namespace, Name: req.Name}
	if readyAt := r.Shared.Backoff.ReadyAt(key); !readyAt.IsZero() && time.Now().Before(readyAt) {
		return ctrl.Result{RequeueAfter: time.Until(readyAt)}, nil
	}

	kube := r.GetClient()
	object, ok := r.GetType().DeepCopyObject().(ResourceObject)
	if !ok {
		return ctrl.Result{}, gtrace.BadParameter("controlled type for kind %q does not implement ResourceObject", kind)
	}

	if err := kube.Get(ctx, req.NamespacedName, object); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, gtrace.Wrap(err)
	}

	finalizers := object.GetFinalizers()
	var op ResourceOp
	if object.GetDeletionTimestamp().IsZero() {
		op = ResourceOpReconcile
		if !containsString(finalizers, DeletionFinalizer) {
			patch := kclient.MergeFrom(object.DeepCopyObject().(ResourceObject))
			controllerutil.AddFinalizer(object, DeletionFinalizer)
			if err := kube.Patch(ctx, object, patch); err != nil {
				return ctrl.Result{}, gtrace.Wrap(err)
			}
			return ctrl.Result{Requeue: true}, nil
		}
	} else {
		op = ResourceOpDelete
		if !containsString(finalizers, DeletionFinalizer) {
			return ctrl.Result{}, nil
		}
	}

	statusPatch := kclient.MergeFrom(object.DeepCopyObject().(ResourceObject))

	doErr := gtrace.Wrap(r.Do(ctx, r.Shared, object, op))
	if doErr != nil {
		logger.Error(doErr, "reconcile failed", "kind", kind)
		span.RecordError(doErr)
	}
	object.SetErrorStatus(doErr)

	patchErr := gtrace.Wrap(kube.Status().Patch(ctx, object, statusPatch))
	if op == ResourceOpDelete && doErr == nil {
		// Finalizer removal is a spec-level change; the status patch above
		// does not carry it, so patch the full object once more.
		finalizerPatch := kclient.MergeFrom(object.DeepCopyObject().(ResourceObject))
		controllerutil.RemoveFinalizer(object, DeletionFinalizer)
		if err := kube.Patch(ctx, object, finalizerPatch); err != nil {
			patchErr = gtrace.NewAggregate(patchErr, gtrace.Wrap(err))
		}
	}

	if doErr != nil {
		delay := r.Shared.Backoff.OnFailure(key)
		if r.Shared.Metrics != nil {
			r.Shared.Metrics.ReconcileErrorsTotal.WithLabelValues(kind, "error").Inc()
			r.Shared.Metrics.BackoffDelaySeconds.WithLabelValues(kind).Observe(delay.Seconds())
		}
		return ctrl.Result{RequeueAfter: delay}, gtrace.NewAggregate(doErr, patchErr)
	}

	r.Shared.Backoff.OnSuccess(key)
	if r.Shared.Metrics != nil {
		r.Shared.Metrics.ReconcileTotal.WithLabelValues(kind, "success").Inc()
	}
	return ctrl.Result{}, patchErr
}

// SetupWithManager registers the controller with mgr, bounding concurrency
// per kind and ignoring delete events (they carry no useful diff info; the
// finalizer-driven update already triggered reconcile).
func (r Reconciler) SetupWithManager(mgr manager.Manager, maxConcurrent int) error {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentReconciles
	}
	predicates := []predicate.Predicate{
		predicate.Funcs{
			DeleteFunc: func(_ event.DeleteEvent) bool { return false },
		},
	}
	return ctrl.NewControllerManagedBy(mgr).
		WithOptions(controller.Options{MaxConcurrentReconciles: maxConcurrent}).
		For(r.GetType(), builder.WithPredicates(predicates...)).
		Complete(r)
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

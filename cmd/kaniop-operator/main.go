package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that exec-entrypoint and run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	clientcmd "k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	gtrace "github.com/gravitational/trace"
	"github.com/prometheus/client_golang/prometheus"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/crd"
	"github.com/pando85/kaniop/internal/backoff"
	"github.com/pando85/kaniop/internal/clientpool"
	"github.com/pando85/kaniop/internal/controller/base"
	"github.com/pando85/kaniop/internal/controller/group"
	"github.com/pando85/kaniop/internal/controller/kanidm"
	"github.com/pando85/kaniop/internal/controller/oauth2client"
	"github.com/pando85/kaniop/internal/controller/person"
	"github.com/pando85/kaniop/internal/controller/serviceaccount"
	"github.com/pando85/kaniop/internal/metrics"
	"github.com/pando85/kaniop/internal/sharedcontext"
	"github.com/pando85/kaniop/internal/tracing"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(kanidmv1beta1.AddToScheme(scheme))
}

var CLI struct {
	ListenAddress   string `kong:"name='listen-address',help='Address the health/metrics HTTP server listens on.',default=':8081'"`
	MetricsPort     int    `kong:"name='metrics-port',help='Port the /metrics endpoint listens on.',default='8080'"`
	TracingEndpoint string `kong:"name='tracing-endpoint',env='OPENTELEMETRY_ENDPOINT_URL',help='OTLP/HTTP endpoint spans are exported to. Empty disables tracing.'"`
	KubeContext     string `kong:"name='kube-context',help='kubeconfig context to use. Empty uses the current context / in-cluster config.'"`
	InstallCRDs     struct {
		Force bool `kong:"help='Overwrite existing CRDs even if they carry a newer operator-version annotation.'"`
	} `kong:"cmd,name='install-crds',help='Installs the operator CRDs into the cluster.'"`
	Run struct{} `kong:"cmd,default='1',help='Runs the operator manager.'"`
	ZapCLI
}

func main() {
	cli := kong.Parse(&CLI)
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(CLI.ZapOptions())))

	restConfig, err := loadRestConfig(CLI.KubeContext)
	if err != nil {
		setupLog.Error(err, "unable to load kubeconfig")
		cli.Exit(1)
	}

	ctx, cancel := context.WithCancel(ctrl.SetupSignalHandler())
	defer cancel()

	switch cli.Command() {
	case "install-crds":
		results, err := crd.Install(ctx, restConfig, Version, CLI.InstallCRDs.Force)
		for _, result := range results {
			setupLog.Info("installed CRD",
				"name", result.CRDName,
				"result", result.OperationResult,
				"operator-version", result.NewOperatorVersion,
				"added-versions", result.AddedCRDVersions,
				"updated-versions", result.UpdatedCRDVersions,
			)
		}
		if err != nil {
			setupLog.Error(err, "CRD installation failed")
			cli.Exit(1)
		}
		return

	case "run":
		// falls through below
	default:
		panic("unsupported command " + cli.Command())
	}

	setupLog.Info("checking CRDs installed")
	if err := crd.Check(ctx, restConfig, Version); err != nil {
		setupLog.Error(err, "CRD check failed; run `kaniop-operator install-crds`")
		cli.Exit(1)
	}

	shutdownTracing, err := tracing.Setup(ctx, CLI.TracingEndpoint, "kaniop-operator")
	if err != nil {
		setupLog.Error(err, "unable to set up tracing")
		cli.Exit(1)
	}
	defer func() {
		tctx, tcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer tcancel()
		_ = shutdownTracing(tctx)
	}()

	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme: scheme,
		Metrics: ctrlmetrics.Options{
			BindAddress: ":" + strconv.Itoa(CLI.MetricsPort),
		},
		HealthProbeBindAddress:  CLI.ListenAddress,
		GracefulShutdownTimeout: durationPtr(10 * time.Second),
	})
	if err != nil {
		setupLog.Error(err, "unable to start operator")
		cli.Exit(1)
	}

	registry := metrics.New(prometheus.DefaultRegisterer)

	kube := mgr.GetClient()
	devYolo := os.Getenv("KANIDM_DEV_YOLO") == "1"
	if devYolo {
		setupLog.Info("KANIDM_DEV_YOLO=1: TLS verification against Kanidm clusters is disabled")
	}

	pool := clientpool.NewPool(kanidm.CredentialSource{Client: kube, DevYoloSkipVerify: devYolo})
	shared := sharedcontext.New(
		kube,
		mgr.GetScheme(),
		mgr.GetEventRecorderFor("kaniop-operator"),
		pool,
		&sharedcontext.Stores{},
		backoff.NewCoordinator(),
		registry,
	)

	controllers := []struct {
		name string
		impl base.ReconcilerImpl
	}{
		{"Kanidm", kanidm.New(kube, mgr.GetScheme())},
		{"KanidmGroup", group.New(kube, mgr.GetScheme())},
		{"KanidmPersonAccount", person.New(kube, mgr.GetScheme())},
		{"KanidmOAuth2Client", oauth2client.New(kube, mgr.GetScheme())},
		{"KanidmServiceAccount", serviceaccount.New(kube, mgr.GetScheme())},
	}
	for _, c := range controllers {
		r := base.Reconciler{ReconcilerImpl: c.impl, Shared: shared}
		if err := r.SetupWithManager(mgr, base.DefaultMaxConcurrentReconciles); err != nil {
			setupLog.Error(err, "unable to set up controller", "kind", c.name)
			cli.Exit(1)
		}
	}

	if err := mgr.AddHealthzCheck("healthz", func(*http.Request) error { return nil }); err != nil {
		setupLog.Error(err, "unable to set up health check")
		cli.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", func(*http.Request) error { return nil }); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		cli.Exit(1)
	}

	setupLog.Info("starting operator")
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "problem running operator")
		cli.Exit(2)
	}
}

func loadRestConfig(kubeContext string) (*rest.Config, error) {
	if kubeContext == "" {
		return ctrl.GetConfigOrDie(), nil
	}
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
	if err != nil {
		return nil, gtrace.Wrap(err, "load kubeconfig context %q", kubeContext)
	}
	return cfg, nil
}

func durationPtr(d time.Duration) *time.Duration { return &d }

package main

import (
	"time"

	"github.com/alecthomas/kong"

	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
	"github.com/pando85/kaniop/internal/admission"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(kanidmv1beta1.AddToScheme(scheme))
}

var CLI struct {
	ListenAddress     string        `kong:"name='listen-address',help='Address the admission HTTPS server listens on.',default=':8443'"`
	TLSCert           string        `kong:"name='tls-cert',help='Path to the TLS certificate served by the admission webhook.',required"`
	TLSKey            string        `kong:"name='tls-key',help='Path to the TLS private key served by the admission webhook.',required"`
	TLSReloadDebounce time.Duration `kong:"name='tls-reload-debounce',help='How long to wait after a certificate file change before reloading.',default='5s'"`
}

func main() {
	cli := kong.Parse(&CLI)
	ctrl.SetLogger(zap.New())

	restConfig := ctrl.GetConfigOrDie()
	kube, err := kclient.NewWithWatch(restConfig, kclient.Options{Scheme: scheme})
	if err != nil {
		setupLog.Error(err, "unable to build watch client")
		cli.Exit(1)
	}

	server, err := admission.NewServer(scheme, kube, admission.Options{
		ListenAddress:  CLI.ListenAddress,
		TLSCertFile:    CLI.TLSCert,
		TLSKeyFile:     CLI.TLSKey,
		ReloadDebounce: CLI.TLSReloadDebounce,
	})
	if err != nil {
		setupLog.Error(err, "unable to build admission server")
		cli.Exit(1)
	}

	ctx := ctrl.SetupSignalHandler()
	setupLog.Info("starting admission server", "address", CLI.ListenAddress)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		setupLog.Error(err, "admission server failed")
		cli.Exit(2)
	}
}

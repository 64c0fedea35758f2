package admission

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/gravitational/trace"
	"k8s.io/apimachinery/pkg/runtime"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

// DefaultReloadDebounce is the default wait before a changed certificate
// file pair is reloaded.
const DefaultReloadDebounce = 5 * time.Second

// Options configures the admission server.
type Options struct {
	ListenAddress  string
	TLSCertFile    string
	TLSKeyFile     string
	ReloadDebounce time.Duration
}

// Server is the standalone admission-webhook HTTPS process: one mux route
// per validated kind, served behind a hot-reloading TLS certificate.
type Server struct {
	opts   Options
	stores *Stores
	http   *http.Server
	reload *certReloader
}

// NewServer builds the mux, the four duplicate validators, and the
// TLS-reloading listener configuration. It does not start serving.
func NewServer(scheme *runtime.Scheme, kube kclient.WithWatch, opts Options) (*Server, error) {
	if opts.ReloadDebounce <= 0 {
		opts.ReloadDebounce = DefaultReloadDebounce
	}

	stores := NewStores(kube)
	decoder := admission.NewDecoder(scheme)

	mux := http.NewServeMux()
	mux.Handle("/validate-kanidmgroup", &admission.Webhook{Handler: NewDuplicateValidator(
		"KanidmGroup", stores.Group, stores.Ready,
		func() kclient.Object { return &kanidmv1beta1.KanidmGroup{} }, groupRef, decoder)})
	mux.Handle("/validate-kanidmpersonaccount", &admission.Webhook{Handler: NewDuplicateValidator(
		"KanidmPersonAccount", stores.Person, stores.Ready,
		func() kclient.Object { return &kanidmv1beta1.KanidmPersonAccount{} }, personRef, decoder)})
	mux.Handle("/validate-kanidmoauth2client", &admission.Webhook{Handler: NewDuplicateValidator(
		"KanidmOAuth2Client", stores.OAuth2Client, stores.Ready,
		func() kclient.Object { return &kanidmv1beta1.KanidmOAuth2Client{} }, oauth2ClientRef, decoder)})
	mux.Handle("/validate-kanidmserviceaccount", &admission.Webhook{Handler: NewDuplicateValidator(
		"KanidmServiceAccount", stores.ServiceAccount, stores.Ready,
		func() kclient.Object { return &kanidmv1beta1.KanidmServiceAccount{} }, serviceAccountRef, decoder)})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !stores.Ready() {
			http.Error(w, "object stores not yet synced", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	reload, err := newCertReloader(opts.TLSCertFile, opts.TLSKeyFile)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	srv := &Server{
		opts:   opts,
		stores: stores,
		reload: reload,
		http: &http.Server{
			Addr:    opts.ListenAddress,
			Handler: mux,
			TLSConfig: &tls.Config{
				GetCertificate: reload.GetCertificate,
				MinVersion:     tls.VersionTLS12,
			},
		},
	}
	return srv, nil
}

// Run starts the object stores' reflectors, the TLS file watcher, and the
// HTTPS listener, blocking until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	logger := log.FromContext(ctx)

	s.stores.Run(ctx)

	stop := make(chan struct{})
	defer close(stop)
	if err := s.reload.watch(stop, s.opts.ReloadDebounce, func(err error) {
		logger.Error(err, "tls certificate reload failed")
	}); err != nil {
		return trace.Wrap(err)
	}

	s.http.BaseContext = func(_ net.Listener) context.Context { return ctx }
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	logger.Info("admission server listening", "address", s.opts.ListenAddress)
	if err := s.http.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
		return trace.Wrap(err)
	}
	return nil
}

package admission

import (
	"crypto/tls"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gravitational/trace"
)

// certReloader holds the currently active server certificate, swapped
// atomically whenever the watched cert/key files change after a debounce
// window.
type certReloader struct {
	certFile, keyFile string
	current           atomic.Pointer[tls.Certificate]
}

func newCertReloader(certFile, keyFile string) (*certReloader, error) {
	r := &certReloader{certFile: certFile, keyFile: keyFile}
	if err := r.reload(); err != nil {
		return nil, trace.Wrap(err)
	}
	return r, nil
}

func (r *certReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return trace.Wrap(err, "loading tls key pair")
	}
	r.current.Store(&cert)
	return nil
}

// GetCertificate satisfies tls.Config.GetCertificate.
func (r *certReloader) GetCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.current.Load(), nil
}

// watch runs a debounced fsnotify loop that reloads the certificate on any
// write/create/rename event touching either watched file, coalescing bursts
// (editors and `kubectl cp`-style secret mounts often emit several events per
// logical change) into a single reload after debounce elapses.
func (r *certReloader) watch(stop <-chan struct{}, debounce time.Duration, onErr func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return trace.Wrap(err)
	}

	for _, f := range []string{r.certFile, r.keyFile} {
		if err := watcher.Add(f); err != nil {
			watcher.Close()
			return trace.Wrap(err, "watching %s", f)
		}
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var timerCh <-chan time.Time
		for {
			select {
			case <-stop:
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				timerCh = timer.C
			case <-timerCh:
				if err := r.reload(); err != nil && onErr != nil {
					onErr(trace.Wrap(err))
				}
				timerCh = nil
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onErr != nil {
					onErr(trace.Wrap(err))
				}
			}
		}
	}()

	return nil
}

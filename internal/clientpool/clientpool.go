// Package clientpool maintains one lazily-constructed, authenticated Kanidm
// session per cluster, serializing construction so a reconcile thundering
// herd never causes duplicate logins against the same cluster.
package clientpool

import (
	"context"
	"sync"

	"github.com/gravitational/trace"

	"github.com/pando85/kaniop/internal/kanidmapi"
)

// ClusterIdentity is the primary key for a Kanidm cluster: the namespace and
// name of its owning Kanidm custom resource.
type ClusterIdentity struct {
	Namespace string
	Name      string
}

// CredentialSource resolves the admin session for a cluster: its base URL
// and bootstrap admin credentials, sourced from the Kanidm CR and its
// bootstrap Secret.
type CredentialSource interface {
	Resolve(ctx context.Context, id ClusterIdentity) (baseURL, username, password string, insecureSkipVerify bool, err error)
}

// sessionPromise is a Kanidm client being initialized asynchronously, mirroring
// the single-flight client-construction pattern this operator's teacher uses
// for its own remote-API client.
type sessionPromise struct {
	doneCh chan struct{}
	client *kanidmapi.Client
	err    error
}

func newSessionPromise(ctx context.Context, creds CredentialSource, id ClusterIdentity) *sessionPromise {
	p := &sessionPromise{doneCh: make(chan struct{})}
	go func() {
		defer close(p.doneCh)

		baseURL, username, password, insecure, err := creds.Resolve(ctx, id)
		if err != nil {
			p.err = trace.Wrap(err)
			return
		}

		token, err := kanidmapi.Login(ctx, baseURL, username, password, insecure)
		if err != nil {
			p.err = trace.Wrap(err, "login to kanidm cluster %s/%s", id.Namespace, id.Name)
			return
		}

		p.client = kanidmapi.NewClient(baseURL, token, insecure).WithToken(token)
	}()
	return p
}

func (p *sessionPromise) get(ctx context.Context) (*kanidmapi.Client, error) {
	select {
	case <-p.doneCh:
		return p.client, p.err
	case <-ctx.Done():
		return nil, trace.Wrap(ctx.Err())
	}
}

// Pool is a concurrent map from ClusterIdentity to its lazily-built session.
type Pool struct {
	creds CredentialSource

	mu       sync.Mutex
	sessions map[ClusterIdentity]*sessionPromise
}

// NewPool builds a Pool resolving credentials via creds.
func NewPool(creds CredentialSource) *Pool {
	return &Pool{
		creds:    creds,
		sessions: make(map[ClusterIdentity]*sessionPromise),
	}
}

// WithSession guarantees fn runs with an authenticated client for id, either
// reusing an existing session or constructing exactly one new one even under
// concurrent callers. On an auth failure from fn, the session is invalidated
// and the call is retried once against a freshly constructed session before
// the error is returned.
func (p *Pool) WithSession(ctx context.Context, id ClusterIdentity, fn func(*kanidmapi.Client) error) error {
	client, promise, err := p.getOrBuild(ctx, id)
	if err != nil {
		return err
	}

	err = fn(client)
	if err == nil {
		return nil
	}
	if !kanidmapi.IsAuthFailed(err) {
		return err
	}

	p.invalidate(id, promise)
	client, _, err = p.getOrBuild(ctx, id)
	if err != nil {
		return err
	}
	return fn(client)
}

func (p *Pool) getOrBuild(ctx context.Context, id ClusterIdentity) (*kanidmapi.Client, *sessionPromise, error) {
	p.mu.Lock()
	promise, ok := p.sessions[id]
	if !ok {
		promise = newSessionPromise(ctx, p.creds, id)
		p.sessions[id] = promise
	}
	p.mu.Unlock()

	client, err := promise.get(ctx)
	if err != nil {
		return nil, promise, trace.Wrap(err)
	}
	return client, promise, nil
}

// invalidate purges promise from the pool if it is still the current entry
// for id, so the next caller reconstructs a fresh session.
func (p *Pool) invalidate(id ClusterIdentity, promise *sessionPromise) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.sessions[id]; ok && current == promise {
		delete(p.sessions, id)
	}
}

// Forget unconditionally drops any cached session for id, used when a
// Kanidm CR is deleted.
func (p *Pool) Forget(id ClusterIdentity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, id)
}

package clientpool

import "github.com/gravitational/trace"

// ErrClusterNotFound returns a typed error for a ClusterIdentity with no
// matching Kanidm custom resource.
func ErrClusterNotFound(id ClusterIdentity) error {
	return trace.NotFound("kanidm cluster %s/%s not found", id.Namespace, id.Name)
}

// ErrNotReady returns a typed error for a Kanidm cluster that exists but has
// not yet completed bootstrap (no admin Secret, or not yet Ready). It
// classifies the same as ErrClusterNotFound (trace.IsNotFound) since both are
// terminal-but-retryable absence conditions from a caller's point of view.
func ErrNotReady(id ClusterIdentity) error {
	return trace.NotFound("kanidm cluster %s/%s exists but is not ready", id.Namespace, id.Name)
}

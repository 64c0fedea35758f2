package kanidmapi

import "github.com/gravitational/trace"

// IsNotFound reports whether err is the "entity does not exist remotely" case.
func IsNotFound(err error) bool { return trace.IsNotFound(err) }

// IsAuthFailed reports whether err is a 401/403 from Kanidm.
func IsAuthFailed(err error) bool { return trace.IsAccessDenied(err) }

// IsConflict reports whether err is a remote naming/compare conflict.
func IsConflict(err error) bool { return trace.IsCompareFailed(err) }

// IsRetryable reports whether the given error is worth retrying once before
// backing off: network resets and auth failures, not 4xx validation errors.
func IsRetryable(err error) bool {
	return trace.IsConnectionProblem(err) || trace.IsAccessDenied(err)
}

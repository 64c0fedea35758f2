package v1beta1

import (
	"github.com/gravitational/trace"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Condition reason identifiers. Stable across releases; never include secrets.
const (
	ReasonReady          = "Ready"
	ReasonProgressing    = "Progressing"
	ReasonInvalid        = "Invalid"
	ReasonNotReady       = "NotReady"
	ReasonAuthFailed     = "AuthFailed"
	ReasonRemoteError    = "RemoteError"
	ReasonUpgrading      = "Upgrading"
	ReasonSkewTooLarge   = "SkewTooLarge"
	ReasonInitialized    = "Initialized"
	ReasonTLSValid       = "TLSValid"
	ReasonReplication    = "ReplicationHealthy"
)

// Condition kinds used as Condition.Type across the CRs in this API group.
const (
	ConditionReady              = "Ready"
	ConditionInitialized        = "Initialized"
	ConditionUpdated            = "Updated"
	ConditionProgressing        = "Progressing"
	ConditionTLSValid           = "TLSValid"
	ConditionReplicationHealthy = "ReplicationHealthy"
	ConditionUpgrading          = "Upgrading"
)

// StatusEnvelope is embedded in every CR's Status to carry the condition list
// shared across the Kanidm cluster CR and the four identity-entity CRs.
type StatusEnvelope struct {
	// Conditions represent the latest available observations of the resource's state.
	//+optional
	//+patchMergeKey=type
	//+patchStrategy=merge
	//+listType=map
	//+listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`
}

// GetConditions returns the condition list so types embedding StatusEnvelope
// satisfy a common accessor interface.
func (s *StatusEnvelope) GetConditions() []metav1.Condition {
	if s == nil {
		return nil
	}
	return s.Conditions
}

// SetConditions replaces the condition list.
func (s *StatusEnvelope) SetConditions(conditions []metav1.Condition) {
	s.Conditions = conditions
}

// KanidmRef identifies the parent Kanidm cluster an identity-entity CR belongs to.
type KanidmRef struct {
	// Name of the Kanidm resource.
	Name string `json:"name"`

	// Namespace of the Kanidm resource. Defaults to the entity's own namespace,
	// except for KanidmOAuth2Client where a set value is honored across namespaces.
	//+optional
	Namespace string `json:"namespace,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmRef) DeepCopyInto(out *KanidmRef) {
	*out = *in
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmRef) DeepCopy() *KanidmRef {
	if in == nil {
		return nil
	}
	out := new(KanidmRef)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *StatusEnvelope) DeepCopyInto(out *StatusEnvelope) {
	*out = *in
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *StatusEnvelope) DeepCopy() *StatusEnvelope {
	if in == nil {
		return nil
	}
	out := new(StatusEnvelope)
	in.DeepCopyInto(out)
	return out
}

// reasonForError classifies an error into a stable Condition reason, a
// SetLastError-style dispatch but targeting metav1.Condition instead of a
// bespoke status field.
func reasonForError(err error) (reason, message string) {
	switch {
	case err == nil:
		return ReasonReady, ""
	case trace.IsConnectionProblem(err):
		return "Network", err.Error()
	case trace.IsAccessDenied(err):
		return ReasonAuthFailed, err.Error()
	case trace.IsNotFound(err):
		return ReasonNotReady, err.Error()
	case trace.IsCompareFailed(err):
		return "Conflict", err.Error()
	case trace.IsBadParameter(err):
		return ReasonInvalid, err.Error()
	default:
		return ReasonRemoteError, err.Error()
	}
}

// setErrorCondition updates the Ready condition of a status envelope from a
// reconcile error (nil clears it to True).
func setErrorCondition(status *StatusEnvelope, err error) {
	reason, message := reasonForError(err)
	condStatus := metav1.ConditionTrue
	if err != nil {
		condStatus = metav1.ConditionFalse
	} else {
		message = "reconciled successfully"
	}
	apimeta.SetStatusCondition(&status.Conditions, metav1.Condition{
		Type:    ConditionReady,
		Status:  condStatus,
		Reason:  reason,
		Message: message,
	})
}

package v1beta1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// GroupPosixAttributes configures POSIX-group extension attributes.
type GroupPosixAttributes struct {
	//+optional
	GidNumber *int64 `json:"gidnumber,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *GroupPosixAttributes) DeepCopyInto(out *GroupPosixAttributes) {
	*out = *in
	if in.GidNumber != nil {
		v := *in.GidNumber
		out.GidNumber = &v
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *GroupPosixAttributes) DeepCopy() *GroupPosixAttributes {
	if in == nil {
		return nil
	}
	out := new(GroupPosixAttributes)
	in.DeepCopyInto(out)
	return out
}

// GroupAccountPolicy carries the optional account-policy attributes a group may impose
// on its members (session limits, credential-type minimum).
type GroupAccountPolicy struct {
	//+optional
	AuthSessionExpiry *int32 `json:"authSessionExpiry,omitempty"`

	//+optional
	PrivilegedSessionExpiry *int32 `json:"privilegedSessionExpiry,omitempty"`

	//+optional
	CredentialTypeMinimum string `json:"credentialTypeMinimum,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *GroupAccountPolicy) DeepCopyInto(out *GroupAccountPolicy) {
	*out = *in
	if in.AuthSessionExpiry != nil {
		v := *in.AuthSessionExpiry
		out.AuthSessionExpiry = &v
	}
	if in.PrivilegedSessionExpiry != nil {
		v := *in.PrivilegedSessionExpiry
		out.PrivilegedSessionExpiry = &v
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *GroupAccountPolicy) DeepCopy() *GroupAccountPolicy {
	if in == nil {
		return nil
	}
	out := new(GroupAccountPolicy)
	in.DeepCopyInto(out)
	return out
}

// KanidmGroupSpec defines the desired state of a Kanidm group entity.
type KanidmGroupSpec struct {
	KanidmRef `json:"kanidmRef"`

	// EntryManagedBy names a group whose members may manage this entry.
	//+optional
	EntryManagedBy string `json:"entryManagedBy,omitempty"`

	// Mail is an ordered set of mail addresses; the first element is primary.
	// A present-but-empty list clears any remote mail addresses; an absent field
	// leaves remote mail untouched (partial attribute ownership).
	//+optional
	Mail []string `json:"mail,omitempty"`

	// Members is an unordered set of member names or SPNs, normalized
	// case-insensitively on the local-part before '@'.
	//+optional
	Members []string `json:"members,omitempty"`

	//+optional
	PosixAttributes *GroupPosixAttributes `json:"posixAttributes,omitempty"`

	//+optional
	AccountPolicy *GroupAccountPolicy `json:"accountPolicy,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmGroupSpec) DeepCopyInto(out *KanidmGroupSpec) {
	*out = *in
	out.KanidmRef = in.KanidmRef
	if in.Mail != nil {
		out.Mail = append([]string(nil), in.Mail...)
	}
	if in.Members != nil {
		out.Members = append([]string(nil), in.Members...)
	}
	if in.PosixAttributes != nil {
		out.PosixAttributes = in.PosixAttributes.DeepCopy()
	}
	if in.AccountPolicy != nil {
		out.AccountPolicy = in.AccountPolicy.DeepCopy()
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmGroupSpec) DeepCopy() *KanidmGroupSpec {
	if in == nil {
		return nil
	}
	out := new(KanidmGroupSpec)
	in.DeepCopyInto(out)
	return out
}

// KanidmGroupStatus defines the observed state of a Kanidm group entity.
type KanidmGroupStatus struct {
	StatusEnvelope `json:",inline"`

	//+optional
	Uuid string `json:"uuid,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmGroupStatus) DeepCopyInto(out *KanidmGroupStatus) {
	*out = *in
	in.StatusEnvelope.DeepCopyInto(&out.StatusEnvelope)
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmGroupStatus) DeepCopy() *KanidmGroupStatus {
	if in == nil {
		return nil
	}
	out := new(KanidmGroupStatus)
	in.DeepCopyInto(out)
	return out
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:resource:path=kanidmgroups,scope=Namespaced,shortName=kg
//+kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
//+kubebuilder:printcolumn:name="KanidmRef",type=string,JSONPath=`.spec.kanidmRef.name`
//+kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// KanidmGroup is the Schema for the kanidmgroups API.
type KanidmGroup struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmGroupSpec   `json:"spec,omitempty"`
	Status KanidmGroupStatus `json:"status,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmGroup) DeepCopyInto(out *KanidmGroup) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmGroup) DeepCopy() *KanidmGroup {
	if in == nil {
		return nil
	}
	out := new(KanidmGroup)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmGroup) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

//+kubebuilder:object:root=true

// KanidmGroupList contains a list of KanidmGroup.
type KanidmGroupList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmGroup `json:"items"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmGroupList) DeepCopyInto(out *KanidmGroupList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]KanidmGroup, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmGroupList) DeepCopy() *KanidmGroupList {
	if in == nil {
		return nil
	}
	out := new(KanidmGroupList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmGroupList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// SetErrorStatus records a reconcile error as a False Ready condition.
func (g *KanidmGroup) SetErrorStatus(err error) {
	setErrorCondition(&g.Status.StatusEnvelope, err)
}

// GetConditions satisfies the conditions accessor used by status helpers.
func (g *KanidmGroup) GetConditions() []metav1.Condition { return g.Status.Conditions }

// SetConditions replaces the condition list.
func (g *KanidmGroup) SetConditions(c []metav1.Condition) { g.Status.Conditions = c }

func init() {
	SchemeBuilder.Register(&KanidmGroup{}, &KanidmGroupList{})
}

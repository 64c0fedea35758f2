package v1beta1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// PersonAttributes carries the human-identity attributes of a person entity.
type PersonAttributes struct {
	Displayname string `json:"displayname"`

	// Mail is an ordered set of mail addresses; the first element is primary.
	//+optional
	Mail []string `json:"mail,omitempty"`

	//+optional
	Legalname string `json:"legalname,omitempty"`

	//+optional
	AccountValidFrom *metav1.Time `json:"accountValidFrom,omitempty"`

	//+optional
	AccountExpire *metav1.Time `json:"accountExpire,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *PersonAttributes) DeepCopyInto(out *PersonAttributes) {
	*out = *in
	if in.Mail != nil {
		out.Mail = append([]string(nil), in.Mail...)
	}
	if in.AccountValidFrom != nil {
		out.AccountValidFrom = in.AccountValidFrom.DeepCopy()
	}
	if in.AccountExpire != nil {
		out.AccountExpire = in.AccountExpire.DeepCopy()
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *PersonAttributes) DeepCopy() *PersonAttributes {
	if in == nil {
		return nil
	}
	out := new(PersonAttributes)
	in.DeepCopyInto(out)
	return out
}

// PersonPosixAttributes configures POSIX-account extension attributes.
type PersonPosixAttributes struct {
	//+optional
	GidNumber *int64 `json:"gidnumber,omitempty"`

	//+optional
	LoginShell string `json:"loginshell,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *PersonPosixAttributes) DeepCopyInto(out *PersonPosixAttributes) {
	*out = *in
	if in.GidNumber != nil {
		v := *in.GidNumber
		out.GidNumber = &v
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *PersonPosixAttributes) DeepCopy() *PersonPosixAttributes {
	if in == nil {
		return nil
	}
	out := new(PersonPosixAttributes)
	in.DeepCopyInto(out)
	return out
}

// KanidmPersonAccountSpec defines the desired state of a Kanidm person entity.
type KanidmPersonAccountSpec struct {
	KanidmRef `json:"kanidmRef"`

	PersonAttributes PersonAttributes `json:"personAttributes"`

	//+optional
	PosixAttributes *PersonPosixAttributes `json:"posixAttributes,omitempty"`

	// CredentialResetTokenTTL, if set and no valid token exists, requests a
	// credential reset token; the resulting URL is published only via status.
	//+optional
	CredentialResetTokenTTL *metav1.Duration `json:"credentialResetTokenTTL,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmPersonAccountSpec) DeepCopyInto(out *KanidmPersonAccountSpec) {
	*out = *in
	out.KanidmRef = in.KanidmRef
	in.PersonAttributes.DeepCopyInto(&out.PersonAttributes)
	if in.PosixAttributes != nil {
		out.PosixAttributes = in.PosixAttributes.DeepCopy()
	}
	if in.CredentialResetTokenTTL != nil {
		d := *in.CredentialResetTokenTTL
		out.CredentialResetTokenTTL = &d
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmPersonAccountSpec) DeepCopy() *KanidmPersonAccountSpec {
	if in == nil {
		return nil
	}
	out := new(KanidmPersonAccountSpec)
	in.DeepCopyInto(out)
	return out
}

// KanidmPersonAccountStatus defines the observed state of a Kanidm person entity.
type KanidmPersonAccountStatus struct {
	StatusEnvelope `json:",inline"`

	//+optional
	Uuid string `json:"uuid,omitempty"`

	// CredentialResetURL is populated only while a freshly issued reset token
	// remains valid; never logged, never emitted as an Event.
	//+optional
	CredentialResetURL string `json:"credentialResetUrl,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmPersonAccountStatus) DeepCopyInto(out *KanidmPersonAccountStatus) {
	*out = *in
	in.StatusEnvelope.DeepCopyInto(&out.StatusEnvelope)
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmPersonAccountStatus) DeepCopy() *KanidmPersonAccountStatus {
	if in == nil {
		return nil
	}
	out := new(KanidmPersonAccountStatus)
	in.DeepCopyInto(out)
	return out
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:resource:path=kanidmpersonaccounts,scope=Namespaced,shortName=kpa
//+kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
//+kubebuilder:printcolumn:name="KanidmRef",type=string,JSONPath=`.spec.kanidmRef.name`
//+kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// KanidmPersonAccount is the Schema for the kanidmpersonaccounts API.
type KanidmPersonAccount struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmPersonAccountSpec   `json:"spec,omitempty"`
	Status KanidmPersonAccountStatus `json:"status,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmPersonAccount) DeepCopyInto(out *KanidmPersonAccount) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmPersonAccount) DeepCopy() *KanidmPersonAccount {
	if in == nil {
		return nil
	}
	out := new(KanidmPersonAccount)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmPersonAccount) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

//+kubebuilder:object:root=true

// KanidmPersonAccountList contains a list of KanidmPersonAccount.
type KanidmPersonAccountList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmPersonAccount `json:"items"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmPersonAccountList) DeepCopyInto(out *KanidmPersonAccountList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]KanidmPersonAccount, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmPersonAccountList) DeepCopy() *KanidmPersonAccountList {
	if in == nil {
		return nil
	}
	out := new(KanidmPersonAccountList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmPersonAccountList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// SetErrorStatus records a reconcile error as a False Ready condition.
func (p *KanidmPersonAccount) SetErrorStatus(err error) {
	setErrorCondition(&p.Status.StatusEnvelope, err)
}

// GetConditions satisfies the conditions accessor used by status helpers.
func (p *KanidmPersonAccount) GetConditions() []metav1.Condition { return p.Status.Conditions }

// SetConditions replaces the condition list.
func (p *KanidmPersonAccount) SetConditions(c []metav1.Condition) { p.Status.Conditions = c }

func init() {
	SchemeBuilder.Register(&KanidmPersonAccount{}, &KanidmPersonAccountList{})
}

package v1beta1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// ServiceAccountPosixAttributes configures POSIX-account extension attributes.
type ServiceAccountPosixAttributes struct {
	//+optional
	GidNumber *int64 `json:"gidnumber,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *ServiceAccountPosixAttributes) DeepCopyInto(out *ServiceAccountPosixAttributes) {
	*out = *in
	if in.GidNumber != nil {
		v := *in.GidNumber
		out.GidNumber = &v
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *ServiceAccountPosixAttributes) DeepCopy() *ServiceAccountPosixAttributes {
	if in == nil {
		return nil
	}
	out := new(ServiceAccountPosixAttributes)
	in.DeepCopyInto(out)
	return out
}

// KanidmServiceAccountSpec defines the desired state of a Kanidm service account entity.
type KanidmServiceAccountSpec struct {
	KanidmRef `json:"kanidmRef"`

	//+optional
	EntryManagedBy string `json:"entryManagedBy,omitempty"`

	//+optional
	Mail []string `json:"mail,omitempty"`

	//+optional
	PosixAttributes *ServiceAccountPosixAttributes `json:"posixAttributes,omitempty"`

	// TokenGenerate requests issuance of an API token, rotated into a child Secret.
	//+optional
	TokenGenerate bool `json:"tokenGenerate,omitempty"`

	// PasswordGenerate requests issuance of a generated password, rotated into a child Secret.
	//+optional
	PasswordGenerate bool `json:"passwordGenerate,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmServiceAccountSpec) DeepCopyInto(out *KanidmServiceAccountSpec) {
	*out = *in
	out.KanidmRef = in.KanidmRef
	if in.Mail != nil {
		out.Mail = append([]string(nil), in.Mail...)
	}
	if in.PosixAttributes != nil {
		out.PosixAttributes = in.PosixAttributes.DeepCopy()
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmServiceAccountSpec) DeepCopy() *KanidmServiceAccountSpec {
	if in == nil {
		return nil
	}
	out := new(KanidmServiceAccountSpec)
	in.DeepCopyInto(out)
	return out
}

// KanidmServiceAccountStatus defines the observed state of a Kanidm service account entity.
type KanidmServiceAccountStatus struct {
	StatusEnvelope `json:",inline"`

	//+optional
	Uuid string `json:"uuid,omitempty"`

	//+optional
	TokenSecretName string `json:"tokenSecretName,omitempty"`

	//+optional
	PasswordSecretName string `json:"passwordSecretName,omitempty"`

	//+optional
	LastRotated *metav1.Time `json:"lastRotated,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmServiceAccountStatus) DeepCopyInto(out *KanidmServiceAccountStatus) {
	*out = *in
	in.StatusEnvelope.DeepCopyInto(&out.StatusEnvelope)
	if in.LastRotated != nil {
		out.LastRotated = in.LastRotated.DeepCopy()
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmServiceAccountStatus) DeepCopy() *KanidmServiceAccountStatus {
	if in == nil {
		return nil
	}
	out := new(KanidmServiceAccountStatus)
	in.DeepCopyInto(out)
	return out
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:resource:path=kanidmserviceaccounts,scope=Namespaced,shortName=ksa
//+kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
//+kubebuilder:printcolumn:name="KanidmRef",type=string,JSONPath=`.spec.kanidmRef.name`
//+kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// KanidmServiceAccount is the Schema for the kanidmserviceaccounts API.
type KanidmServiceAccount struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmServiceAccountSpec   `json:"spec,omitempty"`
	Status KanidmServiceAccountStatus `json:"status,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmServiceAccount) DeepCopyInto(out *KanidmServiceAccount) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmServiceAccount) DeepCopy() *KanidmServiceAccount {
	if in == nil {
		return nil
	}
	out := new(KanidmServiceAccount)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmServiceAccount) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

//+kubebuilder:object:root=true

// KanidmServiceAccountList contains a list of KanidmServiceAccount.
type KanidmServiceAccountList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmServiceAccount `json:"items"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmServiceAccountList) DeepCopyInto(out *KanidmServiceAccountList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]KanidmServiceAccount, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmServiceAccountList) DeepCopy() *KanidmServiceAccountList {
	if in == nil {
		return nil
	}
	out := new(KanidmServiceAccountList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmServiceAccountList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// SetErrorStatus records a reconcile error as a False Ready condition.
func (s *KanidmServiceAccount) SetErrorStatus(err error) {
	setErrorCondition(&s.Status.StatusEnvelope, err)
}

// GetConditions satisfies the conditions accessor used by status helpers.
func (s *KanidmServiceAccount) GetConditions() []metav1.Condition { return s.Status.Conditions }

// SetConditions replaces the condition list.
func (s *KanidmServiceAccount) SetConditions(c []metav1.Condition) { s.Status.Conditions = c }

func init() {
	SchemeBuilder.Register(&KanidmServiceAccount{}, &KanidmServiceAccountList{})
}

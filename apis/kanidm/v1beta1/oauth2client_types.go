package v1beta1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// ClaimJoinStrategy controls how multi-valued claim values are serialized.
type ClaimJoinStrategy string

const (
	ClaimJoinCSV   ClaimJoinStrategy = "csv"
	ClaimJoinSSV   ClaimJoinStrategy = "ssv"
	ClaimJoinArray ClaimJoinStrategy = "array"
)

// ScopeMapEntry maps a Kanidm group (name/SPN, never a UUID) to a set of OAuth2 scopes.
type ScopeMapEntry struct {
	Group string `json:"group"`

	//+optional
	Scopes []string `json:"scopes,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *ScopeMapEntry) DeepCopyInto(out *ScopeMapEntry) {
	*out = *in
	if in.Scopes != nil {
		out.Scopes = append([]string(nil), in.Scopes...)
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *ScopeMapEntry) DeepCopy() *ScopeMapEntry {
	if in == nil {
		return nil
	}
	out := new(ScopeMapEntry)
	in.DeepCopyInto(out)
	return out
}

// ClaimValuesMapEntry maps a group to the claim values it contributes and how
// multiple matching groups' values are joined.
type ClaimValuesMapEntry struct {
	Group string `json:"group"`

	//+optional
	Values []string `json:"values,omitempty"`

	//+kubebuilder:validation:Enum=csv;ssv;array
	//+kubebuilder:default=array
	JoinStrategy ClaimJoinStrategy `json:"joinStrategy,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *ClaimValuesMapEntry) DeepCopyInto(out *ClaimValuesMapEntry) {
	*out = *in
	if in.Values != nil {
		out.Values = append([]string(nil), in.Values...)
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *ClaimValuesMapEntry) DeepCopy() *ClaimValuesMapEntry {
	if in == nil {
		return nil
	}
	out := new(ClaimValuesMapEntry)
	in.DeepCopyInto(out)
	return out
}

// ClaimMapEntry is a named custom OAuth2 claim populated from one or more groups.
type ClaimMapEntry struct {
	Name string `json:"name"`

	//+optional
	ValuesMap []ClaimValuesMapEntry `json:"valuesMap,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *ClaimMapEntry) DeepCopyInto(out *ClaimMapEntry) {
	*out = *in
	if in.ValuesMap != nil {
		out.ValuesMap = make([]ClaimValuesMapEntry, len(in.ValuesMap))
		for i := range in.ValuesMap {
			in.ValuesMap[i].DeepCopyInto(&out.ValuesMap[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *ClaimMapEntry) DeepCopy() *ClaimMapEntry {
	if in == nil {
		return nil
	}
	out := new(ClaimMapEntry)
	in.DeepCopyInto(out)
	return out
}

// KanidmOAuth2ClientSpec defines the desired state of a Kanidm OAuth2 resource server.
type KanidmOAuth2ClientSpec struct {
	// KanidmRef may reference a Kanidm cluster in another namespace.
	KanidmRef `json:"kanidmRef"`

	Displayname string `json:"displayname"`

	Origin string `json:"origin"`

	//+kubebuilder:validation:MinItems=1
	RedirectUrl []string `json:"redirectUrl"`

	// Public is immutable: a public client may never be flipped to confidential
	// or back, since the secret lifecycle differs irrevocably.
	//+kubebuilder:validation:XValidation:rule="self == oldSelf",message="public is immutable."
	Public bool `json:"public"`

	//+optional
	ScopeMap []ScopeMapEntry `json:"scopeMap,omitempty"`

	//+optional
	SupScopeMap []ScopeMapEntry `json:"supScopeMap,omitempty"`

	//+optional
	ClaimMap []ClaimMapEntry `json:"claimMap,omitempty"`

	//+optional
	StrictRedirectUrl bool `json:"strictRedirectUrl,omitempty"`

	//+optional
	PreferShortUsername bool `json:"preferShortUsername,omitempty"`

	// AllowLocalhostRedirect is only honored for public clients.
	//+optional
	AllowLocalhostRedirect bool `json:"allowLocalhostRedirect,omitempty"`

	// AllowInsecureClientDisablePkce is passed to Kanidm as given; neither the
	// admission validator nor the CRD schema rejects it for public clients.
	//+optional
	AllowInsecureClientDisablePkce bool `json:"allowInsecureClientDisablePkce,omitempty"`

	//+optional
	JwtLegacyCryptoEnable bool `json:"jwtLegacyCryptoEnable,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmOAuth2ClientSpec) DeepCopyInto(out *KanidmOAuth2ClientSpec) {
	*out = *in
	out.KanidmRef = in.KanidmRef
	if in.RedirectUrl != nil {
		out.RedirectUrl = append([]string(nil), in.RedirectUrl...)
	}
	if in.ScopeMap != nil {
		out.ScopeMap = make([]ScopeMapEntry, len(in.ScopeMap))
		for i := range in.ScopeMap {
			in.ScopeMap[i].DeepCopyInto(&out.ScopeMap[i])
		}
	}
	if in.SupScopeMap != nil {
		out.SupScopeMap = make([]ScopeMapEntry, len(in.SupScopeMap))
		for i := range in.SupScopeMap {
			in.SupScopeMap[i].DeepCopyInto(&out.SupScopeMap[i])
		}
	}
	if in.ClaimMap != nil {
		out.ClaimMap = make([]ClaimMapEntry, len(in.ClaimMap))
		for i := range in.ClaimMap {
			in.ClaimMap[i].DeepCopyInto(&out.ClaimMap[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmOAuth2ClientSpec) DeepCopy() *KanidmOAuth2ClientSpec {
	if in == nil {
		return nil
	}
	out := new(KanidmOAuth2ClientSpec)
	in.DeepCopyInto(out)
	return out
}

// KanidmOAuth2ClientStatus defines the observed state of a Kanidm OAuth2 resource server.
type KanidmOAuth2ClientStatus struct {
	StatusEnvelope `json:",inline"`

	//+optional
	Uuid string `json:"uuid,omitempty"`

	// SecretName names the Secret holding client_id/client_secret, once emitted.
	//+optional
	SecretName string `json:"secretName,omitempty"`

	//+optional
	LastRotated *metav1.Time `json:"lastRotated,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmOAuth2ClientStatus) DeepCopyInto(out *KanidmOAuth2ClientStatus) {
	*out = *in
	in.StatusEnvelope.DeepCopyInto(&out.StatusEnvelope)
	if in.LastRotated != nil {
		out.LastRotated = in.LastRotated.DeepCopy()
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmOAuth2ClientStatus) DeepCopy() *KanidmOAuth2ClientStatus {
	if in == nil {
		return nil
	}
	out := new(KanidmOAuth2ClientStatus)
	in.DeepCopyInto(out)
	return out
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:resource:path=kanidmoauth2clients,scope=Namespaced,shortName=koc
//+kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
//+kubebuilder:printcolumn:name="KanidmRef",type=string,JSONPath=`.spec.kanidmRef.name`
//+kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// KanidmOAuth2Client is the Schema for the kanidmoauth2clients API.
type KanidmOAuth2Client struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmOAuth2ClientSpec   `json:"spec,omitempty"`
	Status KanidmOAuth2ClientStatus `json:"status,omitempty"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmOAuth2Client) DeepCopyInto(out *KanidmOAuth2Client) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmOAuth2Client) DeepCopy() *KanidmOAuth2Client {
	if in == nil {
		return nil
	}
	out := new(KanidmOAuth2Client)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmOAuth2Client) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

//+kubebuilder:object:root=true

// KanidmOAuth2ClientList contains a list of KanidmOAuth2Client.
type KanidmOAuth2ClientList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmOAuth2Client `json:"items"`
}

// DeepCopyInto copies the receiver into out.
func (in *KanidmOAuth2ClientList) DeepCopyInto(out *KanidmOAuth2ClientList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]KanidmOAuth2Client, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *KanidmOAuth2ClientList) DeepCopy() *KanidmOAuth2ClientList {
	if in == nil {
		return nil
	}
	out := new(KanidmOAuth2ClientList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *KanidmOAuth2ClientList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// SetErrorStatus records a reconcile error as a False Ready condition.
func (c *KanidmOAuth2Client) SetErrorStatus(err error) {
	setErrorCondition(&c.Status.StatusEnvelope, err)
}

// GetConditions satisfies the conditions accessor used by status helpers.
func (c *KanidmOAuth2Client) GetConditions() []metav1.Condition { return c.Status.Conditions }

// SetConditions replaces the condition list.
func (c *KanidmOAuth2Client) SetConditions(conditions []metav1.Condition) {
	c.Status.Conditions = conditions
}

func init() {
	SchemeBuilder.Register(&KanidmOAuth2Client{}, &KanidmOAuth2ClientList{})
}

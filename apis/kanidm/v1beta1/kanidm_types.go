package v1beta1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ReplicaGroupRole is the role a replica group plays in a Kanidm cluster.
type ReplicaGroupRole string

const (
	RoleWriteReplica     ReplicaGroupRole = "write_replica"
	RoleWriteReplicaNoUI ReplicaGroupRole = "write_replica_no_ui"
	RoleReadReplica      ReplicaGroupRole = "read_replica"
)

// ExternalReplicationType describes how an external replication node participates.
type ExternalReplicationType string

const (
	ExternalReplicationMutualPull ExternalReplicationType = "mutual-pull"
	ExternalReplicationPull       ExternalReplicationType = "pull"
	ExternalReplicationPush       ExternalReplicationType = "push"
)

// ReplicaGroup describes one StatefulSet-backed subset of Kanidm pods.
type ReplicaGroup struct {
	// Name must be unique among replica groups of the same Kanidm CR.
	Name string `json:"name"`

	// Replicas is the desired pod count for this group.
	//+kubebuilder:default=1
	Replicas int32 `json:"replicas"`

	// Role this replica group plays.
	//+kubebuilder:validation:Enum=write_replica;write_replica_no_ui;read_replica
	Role ReplicaGroupRole `json:"role"`

	// PrimaryNode marks this group's single pod as the conflict-resolution primary.
	//+optional
	PrimaryNode *bool `json:"primaryNode,omitempty"`

	//+optional
	Resources corev1.ResourceRequirements `json:"resources,omitempty"`

	//+optional
	Affinity *corev1.Affinity `json:"affinity,omitempty"`

	//+optional
	Tolerations []corev1.Toleration `json:"tolerations,omitempty"`

	//+optional
	Topology []corev1.TopologySpreadConstraint `json:"topology,omitempty"`

	//+optional
	StatefulSetAnnotations map[string]string `json:"statefulSetAnnotations,omitempty"`
}

// ExternalReplicationNode describes a peer outside this Kanidm CR's own replica groups.
type ExternalReplicationNode struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	Port     int32  `json:"port"`

	// CertificateSecretRef names the Secret holding the peer's replication identity certificate.
	CertificateSecretRef string `json:"certificateSecretRef"`

	//+kubebuilder:validation:Enum=mutual-pull;pull;push
	Type ExternalReplicationType `json:"type"`

	//+optional
	AutomaticRefresh bool `json:"automaticRefresh,omitempty"`
}

// StorageSpec is a one-of volume source for the Kanidm data directory.
type StorageSpec struct {
	//+optional
	EmptyDir *corev1.EmptyDirVolumeSource `json:"emptyDir,omitempty"`

	//+optional
	Ephemeral *corev1.EphemeralVolumeSource `json:"ephemeral,omitempty"`

	//+optional
	VolumeClaimTemplate *corev1.PersistentVolumeClaimSpec `json:"volumeClaimTemplate,omitempty"`
}

// KanidmServiceSpec configures the client-facing Service.
type KanidmServiceSpec struct {
	//+optional
	Type corev1.ServiceType `json:"type,omitempty"`

	//+optional
	Annotations map[string]string `json:"annotations,omitempty"`
}

// KanidmIngressSpec configures the optional Ingress.
type KanidmIngressSpec struct {
	//+optional
	Annotations map[string]string `json:"annotations,omitempty"`

	//+optional
	Class *string `json:"class,omitempty"`

	//+optional
	TLSSecretName string `json:"tlsSecretName,omitempty"`

	//+optional
	ExtraTLSHosts []string `json:"extraTlsHosts,omitempty"`
}

// KanidmSpec defines the desired state of a Kanidm cluster.
type KanidmSpec struct {
	// Domain is the Kanidm server's domain name. Immutable after creation.
	//+kubebuilder:validation:XValidation:rule="self == oldSelf",message="Domain cannot be changed."
	Domain string `json:"domain"`

	//+kubebuilder:validation:MinItems=1
	ReplicaGroups []ReplicaGroup `json:"replicaGroups"`

	//+optional
	ExternalReplicationNodes []ExternalReplicationNode `json:"externalReplicationNodes,omitempty"`

	Image string `json:"image"`

	//+kubebuilder:default=https
	PortName string `json:"portName,omitempty"`

	//+kubebuilder:default=ldap
	LdapPortName string `json:"ldapPortName,omitempty"`

	//+optional
	Env []corev1.EnvVar `json:"env,omitempty"`

	Storage StorageSpec `json:"storage,omitempty"`

	//+optional
	TLSSecretName string `json:"tlsSecretName,omitempty"`

	//+optional
	Service KanidmServiceSpec `json:"service,omitempty"`

	//+optional
	Ingress *KanidmIngressSpec `json:"ingress,omitempty"`

	//+optional
	SecurityContext *corev1.PodSecurityContext `json:"securityContext,omitempty"`

	//+optional
	OAuth2ClientNamespaceSelector *metav1.LabelSelector `json:"oauth2ClientNamespaceSelector,omitempty"`
}

// KanidmStatus defines the observed state of a Kanidm cluster.
type KanidmStatus struct {
	StatusEnvelope `json:",inline"`

	//+optional
	Replicas int32 `json:"replicas,omitempty"`

	//+optional
	Domain string `json:"domain,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:resource:path=kanidms,scope=Namespaced
//+kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
//+kubebuilder:printcolumn:name="Replicas",type=integer,JSONPath=`.status.replicas`
//+kubebuilder:printcolumn:name="Domain",type=string,JSONPath=`.status.domain`
//+kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// Kanidm is the Schema for the kanidms API.
type Kanidm struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmSpec   `json:"spec,omitempty"`
	Status KanidmStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// KanidmList contains a list of Kanidm.
type KanidmList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Kanidm `json:"items"`
}

// SetErrorStatus records a reconcile error as a False Ready condition.
func (k *Kanidm) SetErrorStatus(err error) {
	setErrorCondition(&k.Status.StatusEnvelope, err)
}

// GetConditions satisfies the conditions accessor used by status helpers.
func (k *Kanidm) GetConditions() []metav1.Condition { return k.Status.Conditions }

// SetConditions replaces the condition list.
func (k *Kanidm) SetConditions(c []metav1.Condition) { k.Status.Conditions = c }

func init() {
	SchemeBuilder.Register(&Kanidm{}, &KanidmList{})
}

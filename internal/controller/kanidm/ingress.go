package kanidm

import (
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kanidmv1beta1 "github.com/pando85/kaniop/apis/kanidm/v1beta1"
)

func ingressName(k *kanidmv1beta1.Kanidm) string { return k.Name }

// buildIngress terminates TLS at the ingress controller and forwards to the
// global Service. Returns nil when Ingress is not configured.
func buildIngress(k *kanidmv1beta1.Kanidm) *networkingv1.Ingress {
	if k.Spec.Ingress == nil {
		return nil
	}
	ing := k.Spec.Ingress

	pathType := networkingv1.PathTypePrefix
	hosts := append([]string{k.Spec.Domain}, ing.ExtraTLSHosts...)

	rules := make([]networkingv1.IngressRule, 0, len(hosts))
	for _, host := range hosts {
		rules = append(rules, networkingv1.IngressRule{
			Host: host,
			IngressRuleValue: networkingv1.IngressRuleValue{
				HTTP: &networkingv1.HTTPIngressRuleValue{
					Paths: []networkingv1.HTTPIngressPath{
						{
							Path:     "/",
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: globalServiceName(k),
									Port: networkingv1.ServiceBackendPort{Name: portName(k.Spec.PortName, "https")},
								},
							},
						},
					},
				},
			},
		})
	}

	var tls []networkingv1.IngressTLS
	if ing.TLSSecretName != "" {
		tls = []networkingv1.IngressTLS{{Hosts: hosts, SecretName: ing.TLSSecretName}}
	}

	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:        ingressName(k),
			Namespace:   k.Namespace,
			Annotations: ing.Annotations,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "kaniop",
				"kanidm.kaniop.rs/cluster":     k.Name,
			},
		},
		Spec: networkingv1.IngressSpec{
			IngressClassName: ing.Class,
			Rules:            rules,
			TLS:              tls,
		},
	}
}

// Package crd embeds the operator's CustomResourceDefinition manifests and
// installs or version-checks them against a live cluster, generalizing the
// teacher's embed-and-reconcile approach to this module's five kinds.
package crd

import (
	"embed"
	"fmt"

	"github.com/gravitational/trace"
	hcversion "github.com/hashicorp/go-version"

	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"
)

var scheme = runtime.NewScheme()

var crds []apiextv1.CustomResourceDefinition

//go:embed kaniop.rs_*.yaml
var crdFS embed.FS

type base struct {
	client  client.Client
	version *hcversion.Version
}

func init() {
	utilruntime.Must(apiextv1.AddToScheme(scheme))

	entries, err := crdFS.ReadDir(".")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			panic("no directories are expected to be embedded")
		}
		contents, err := crdFS.ReadFile(entry.Name())
		if err != nil {
			panic(err)
		}
		var crd apiextv1.CustomResourceDefinition
		if err := yaml.Unmarshal(contents, &crd); err != nil {
			panic(err)
		}
		crds = append(crds, crd)
	}
}

func newBase(restConfig *rest.Config, operatorVersion string) (base, error) {
	var (
		b   base
		err error
	)

	if b.client, err = client.New(restConfig, client.Options{Scheme: scheme}); err != nil {
		return b, trace.Wrap(err)
	}

	if b.version, err = hcversion.NewVersion(operatorVersion); err != nil {
		return b, trace.Wrap(err)
	}

	return b, nil
}

func versionAnnotation(name string) string {
	return fmt.Sprintf("%s.kaniop-operator-version", name)
}

func getVersionsMap(crd *apiextv1.CustomResourceDefinition) map[string]apiextv1.CustomResourceDefinitionVersion {
	result := make(map[string]apiextv1.CustomResourceDefinitionVersion, len(crd.Spec.Versions))
	for _, v := range crd.Spec.Versions {
		result[v.Name] = v
	}
	return result
}

package crd

import (
	"context"

	"github.com/gravitational/trace"
	hcversion "github.com/hashicorp/go-version"

	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

type checker struct {
	base
}

// Check verifies that every CRD this operator version expects is installed
// and at least as new, failing fast before the manager starts reconciling.
func Check(ctx context.Context, restConfig *rest.Config, operatorVersion string) error {
	b, err := newBase(restConfig, operatorVersion)
	if err != nil {
		return trace.Wrap(err)
	}

	checker := checker{base: b}
	for _, crd := range crds {
		if err := checker.do(ctx, crd.DeepCopy()); err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

func (checker checker) do(ctx context.Context, source *apiextv1.CustomResourceDefinition) error {
	crdVersions := getVersionsMap(source)

	var crd apiextv1.CustomResourceDefinition
	if err := checker.client.Get(ctx, client.ObjectKey{Name: source.Name}, &crd); err != nil {
		return trace.Wrap(err)
	}

	for _, crdVersion := range crd.Spec.Versions {
		if _, ok := crdVersions[crdVersion.Name]; !ok {
			continue
		}
		annotation := versionAnnotation(crdVersion.Name)
		installedVersion := crd.Annotations[annotation]
		v, err := hcversion.NewVersion(installedVersion)
		if err != nil {
			return trace.Wrap(err,
				"failed to parse operator version annotation %s for CRD %s version %s: %q",
				annotation, crd.Name, crdVersion.Name, installedVersion)
		}
		if v.LessThan(checker.version) {
			return trace.CompareFailed("installed CRD %s version %s is older than this operator; run `kaniop-operator install-crds` to update", crd.Name, crdVersion.Name)
		}
	}
	return nil
}

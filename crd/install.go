package crd

import (
	"context"

	"github.com/gravitational/trace"
	hcversion "github.com/hashicorp/go-version"

	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
)

// InstallResult reports what Install did for one CRD.
type InstallResult struct {
	CRDName            string
	OperationResult    string
	NewOperatorVersion string
	UpdatedCRDVersions map[string]string
	AddedCRDVersions   []string
}

type installer struct {
	base
	force bool
}

// Install creates or updates every embedded CRD in the cluster. force skips
// the "only upgrade, never downgrade" annotation check.
func Install(ctx context.Context, restConfig *rest.Config, operatorVersion string, force bool) ([]InstallResult, error) {
	b, err := newBase(restConfig, operatorVersion)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	installer := installer{base: b, force: force}

	var errs []error
	var results []InstallResult
	for _, crd := range crds {
		if result, err := installer.do(ctx, &crd); err != nil {
			errs = append(errs, trace.Wrap(err, "unable to install %s", crd.Name))
		} else {
			results = append(results, result)
		}
	}
	return results, trace.NewAggregate(errs...)
}

func (installer *installer) do(ctx context.Context, source *apiextv1.CustomResourceDefinition) (InstallResult, error) {
	crdVersions := getVersionsMap(source)

	var (
		crd             apiextv1.CustomResourceDefinition
		updatedVersions map[string]string
		addedVersions   []string
	)

	crd.Name = source.Name
	operatorVersion := installer.version.String()
	result, err := controllerutil.CreateOrPatch(ctx, installer.client, &crd, func() error {
		updatedVersions = make(map[string]string, len(crdVersions))
		addedVersions = make([]string, 0, len(crdVersions))

		if crd.Annotations == nil {
			crd.Annotations = make(map[string]string)
		}

		if crd.ResourceVersion == "" {
			crd.Spec = *source.Spec.DeepCopy()
			for _, crdVersion := range crd.Spec.Versions {
				addedVersions = append(addedVersions, crdVersion.Name)
				crd.Annotations[versionAnnotation(crdVersion.Name)] = operatorVersion
			}
			return nil
		}

		versions := make([]apiextv1.CustomResourceDefinitionVersion, len(crd.Spec.Versions))
		for i, crdVersion := range crd.Spec.Versions {
			annotation := versionAnnotation(crdVersion.Name)
			oldOperatorVersion := crd.Annotations[annotation]

			if !installer.force {
				v, err := hcversion.NewVersion(oldOperatorVersion)
				if err != nil {
					return trace.Wrap(err,
						"failed to parse operator version annotation %s for CRD version %s: %q",
						annotation, crdVersion.Name, oldOperatorVersion)
				}
				if v.GreaterThan(installer.version) {
					versions[i] = crdVersion
					continue
				}
			}

			if ourVersion, ok := crdVersions[crdVersion.Name]; ok {
				versions[i] = *ourVersion.DeepCopy()
				updatedVersions[crdVersion.Name] = oldOperatorVersion
				crd.Annotations[annotation] = operatorVersion
			} else {
				versions[i] = crdVersion
			}
		}
		for _, ourVersion := range crdVersions {
			if _, ok := updatedVersions[ourVersion.Name]; !ok {
				versions = append(versions, *ourVersion.DeepCopy())
				addedVersions = append(addedVersions, ourVersion.Name)
				crd.Annotations[versionAnnotation(ourVersion.Name)] = installer.version.String()
			}
		}
		crd.Spec.Versions = versions
		return nil
	})
	if err != nil {
		return InstallResult{}, trace.Wrap(err)
	}

	return InstallResult{
		CRDName:            crd.Name,
		OperationResult:    string(result),
		NewOperatorVersion: operatorVersion,
		UpdatedCRDVersions: updatedVersions,
		AddedCRDVersions:   addedVersions,
	}, nil
}

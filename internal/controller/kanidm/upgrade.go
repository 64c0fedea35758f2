package kanidm

import (
	"strings"

	hcversion "github.com/hashicorp/go-version"

	gtrace "github.com/gravitational/trace"
)

// imageTag returns the tag portion of an image reference, or "" if untagged.
func imageTag(image string) string {
	idx := strings.LastIndex(image, ":")
	if idx < 0 || strings.Contains(image[idx+1:], "/") {
		return ""
	}
	return image[idx+1:]
}

// checkUpgradeSkew rejects an upgrade that jumps more than one minor version.
// Untagged or unparsable versions are never blocked: there is nothing
// meaningful to compare against.
func checkUpgradeSkew(runningImage, desiredImage string) error {
	runningTag := imageTag(runningImage)
	desiredTag := imageTag(desiredImage)
	if runningTag == "" || desiredTag == "" || runningTag == desiredTag {
		return nil
	}

	running, err := hcversion.NewVersion(runningTag)
	if err != nil {
		return nil
	}
	desired, err := hcversion.NewVersion(desiredTag)
	if err != nil {
		return nil
	}

	if desired.LessThan(running) {
		return gtrace.BadParameter("desired image tag %q is older than running %q", desiredTag, runningTag)
	}

	rs := running.Segments()
	ds := desired.Segments()
	if len(rs) < 2 || len(ds) < 2 {
		return nil
	}
	if rs[0] != ds[0] || ds[1]-rs[1] > 1 {
		return gtrace.BadParameter("upgrade from %q to %q spans more than one minor version", runningTag, desiredTag)
	}
	return nil
}

// isPatchOnlyUpgrade reports whether desired differs from running only in
// the patch segment, exempting it from the upgrade-check probe gate.
func isPatchOnlyUpgrade(runningImage, desiredImage string) bool {
	runningTag, desiredTag := imageTag(runningImage), imageTag(desiredImage)
	if runningTag == "" || desiredTag == "" {
		return false
	}
	running, err := hcversion.NewVersion(runningTag)
	if err != nil {
		return false
	}
	desired, err := hcversion.NewVersion(desiredTag)
	if err != nil {
		return false
	}
	rs, ds := running.Segments(), desired.Segments()
	return len(rs) >= 2 && len(ds) >= 2 && rs[0] == ds[0] && rs[1] == ds[1]
}

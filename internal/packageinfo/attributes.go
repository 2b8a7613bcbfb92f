package packageinfo

import (
	"runtime/debug"
	"strings"
)

const develVersion = "(devel)"

// Attributes describes the running build.
type Attributes struct {
	PackageVersion string
}

type buildInfoReader func() (*debug.BuildInfo, bool)

var readBuildInfo buildInfoReader = debug.ReadBuildInfo

// Load returns the attributes of the running binary. A non-blank override wins
// over the module version recorded by the Go toolchain; development builds
// carry no version.
func Load(versionOverride string) Attributes {
	if trimmedOverride := strings.TrimSpace(versionOverride); trimmedOverride != "" {
		return Attributes{PackageVersion: trimmedOverride}
	}
	buildInfo, available := readBuildInfo()
	if !available || buildInfo == nil {
		return Attributes{}
	}
	version := strings.TrimSpace(buildInfo.Main.Version)
	if version == develVersion {
		version = ""
	}
	return Attributes{PackageVersion: version}
}

// HasVersion reports whether a version should be displayed.
func (attributes Attributes) HasVersion() bool {
	return attributes.PackageVersion != ""
}

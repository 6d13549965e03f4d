// Package version holds build metadata injected with -ldflags, e.g.
//
//	-X github.com/banshee-data/sympol2d/internal/version.Version=v0.3.0
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String is the one-line build summary printed by `sympol2d version`.
func String() string {
	return fmt.Sprintf("sympol2d %s (%s, built %s, %s)", Version, GitSHA, BuildTime, runtime.Version())
}

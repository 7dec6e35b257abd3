// Package version carries build identification stamped in via ldflags.
package version

import "fmt"

var (
	// Version is the release version.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String returns a one-line build description.
func String() string {
	return fmt.Sprintf("sidescan %s (%s, built %s)", Version, GitSHA, BuildTime)
}

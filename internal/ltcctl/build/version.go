package build

import "runtime"

// Set at build time with -ldflags "-X".
var (
	ReleaseVersion = "UNKNOWN_RELEASE_VERSION"
	GitCommit      = "UNKNOWN_GIT_COMMIT"
	GoVersion      = runtime.Version()
	BuildTime      = "UNKNOWN_BUILD_TIME"
)

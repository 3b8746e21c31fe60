// Package version holds build information injected with -ldflags, for example
//
//	-X github.com/bissquit/bloomshop/internal/version.Version=1.2.0
package version

// Build information. Defaults identify a development build.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Package version holds build metadata, set through -ldflags at release time:
//
//	-X github.com/MrSnakeDoc/homenav/internal/version.Version=v0.3.0
package version

import "runtime"

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2026-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// Package version holds build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// These are overridden with -ldflags "-X github.com/jackzampolin/regdesk/version.GitRelease=..."
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)

// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/Malay-RB/Document-parsing/version.GitRelease=v0.3.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)

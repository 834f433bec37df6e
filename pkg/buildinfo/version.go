// Package buildinfo reports which traitstack build is running.
//
// Release builds set the variables through ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/traitstack/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/traitstack/pkg/buildinfo.Commit=$(git rev-parse HEAD)" \
//	    ./cmd/traitstack
//
// A plain "go install" leaves them unset; the module version and VCS stamp
// embedded by the toolchain are used instead.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release tag, e.g. "v0.3.0".
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		}
	}
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

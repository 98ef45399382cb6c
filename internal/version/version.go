// Package version reports how the dextint binary was built. The values are
// stamped by the release build with -ldflags -X on this package's path.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Name is the program name used in version strings and the HTTP User-Agent.
const Name = "dextint"

// Build metadata. The defaults identify a local, unstamped build.
//
//	go build -ldflags "-X github.com/jmylchreest/dextint/internal/version.Version=1.2.0 \
//	  -X github.com/jmylchreest/dextint/internal/version.Commit=$(git rev-parse HEAD) \
//	  -X github.com/jmylchreest/dextint/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"

	// GoVersion is the toolchain that compiled the binary.
	GoVersion = runtime.Version()
)

// Info is the JSON shape printed by `dextint version --json`.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo collects the build metadata. Unstamped commit and date are left empty.
func GetInfo() Info {
	info := Info{
		Name:      Name,
		Version:   Version,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if stamped() {
		info.Commit = shortCommit(Commit)
		info.Date = Date
	}
	return info
}

// String renders the one-line form printed by `dextint version`.
func String() string {
	info := GetInfo()
	var b strings.Builder
	fmt.Fprintf(&b, "%s version %s", info.Name, info.Version)
	if info.Commit != "" {
		fmt.Fprintf(&b, " (commit: %s, built: %s, %s, %s)", info.Commit, info.Date, info.GoVersion, info.Platform)
	} else {
		fmt.Fprintf(&b, " (%s, %s)", info.GoVersion, info.Platform)
	}
	return b.String()
}

// Short returns the bare version, used by cobra's --version flag.
func Short() string {
	return Version
}

// UserAgent returns the User-Agent sent with remote image fetches.
func UserAgent() string {
	return Name + "/" + Version
}

func stamped() bool {
	return Commit != "unknown" && Date != "unknown"
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

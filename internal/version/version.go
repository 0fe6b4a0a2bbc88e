// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in logs and the journal.
const Name = "soundnode"

// Set via -ldflags "-X github.com/smazurov/soundnode/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	BuildID   = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	BuildID   string `json:"build_id"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Platform  string `json:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		BuildID:   BuildID,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the info as one line, e.g.
// "soundnode dev (commit unknown, built unknown, go1.24.11 linux/arm64)".
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s)",
		Name, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// String returns the application version.
func String() string {
	return Version
}

package version

import (
	"runtime"
	"time"
)

// Set with -ldflags "-X github.com/MrSnakeDoc/inkpad/internal/version.Version=v0.1.0".
var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// Info is the build identity reported by /healthz.
type Info struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// Current returns the build identity of the running binary.
func Current() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
}

// String formats the build identity for the startup log line.
func (i Info) String() string {
	return i.Version + " (commit=" + i.Commit + ", built=" + i.BuildDate + ", go=" + i.GoVersion + ")"
}

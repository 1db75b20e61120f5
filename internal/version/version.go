// Package version holds build information for iconform, injected with
// -ldflags "-X github.com/jmylchreest/iconform/internal/version.Version=x.y.z"
// and likewise for Commit and Date.
package version

import (
	"fmt"
	"runtime"

	"github.com/jmylchreest/iconform/pkg/plugin"
)

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"

	// Date is the build time in RFC3339 format.
	Date = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version         string `json:"version"`
	Commit          string `json:"commit"`
	Date            string `json:"date"`
	GoVersion       string `json:"go_version"`
	Platform        string `json:"platform"`
	ProtocolVersion string `json:"protocol_version"`
}

// GetInfo returns the build information.
func GetInfo() Info {
	return Info{
		Version:         Version,
		Commit:          Commit,
		Date:            Date,
		GoVersion:       runtime.Version(),
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
		ProtocolVersion: plugin.ProtocolVersion,
	}
}

// String returns a one line description for `iconform version`.
func String() string {
	info := GetInfo()
	if Commit == "unknown" || Date == "unknown" {
		return fmt.Sprintf("iconform version %s (protocol %s, %s, %s)",
			info.Version, info.ProtocolVersion, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("iconform version %s (commit: %s, built: %s, protocol %s, %s, %s)",
		info.Version, shortCommit(info.Commit), info.Date, info.ProtocolVersion, info.GoVersion, info.Platform)
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}

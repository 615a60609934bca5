// Package version exposes the binary's build metadata. Release builds
// override the package variables through -ldflags; anything else reports
// the development placeholders.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
)

var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info describes one build of the binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Current assembles the Info for the running binary.
func Current() Info {
	return Info{
		Version:   version,
		GitCommit: shortCommit(gitCommit),
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the one-line form used by the version command.
func (i Info) String() string {
	return fmt.Sprintf("confgen %s (%s) built %s, %s, %s",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// JSON renders the machine-readable form of the version command.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

// shortCommit abbreviates a full SHA; placeholders pass through unchanged.
func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}

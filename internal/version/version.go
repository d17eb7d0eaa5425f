// Package version reports build information for kiwi
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time with -ldflags "-X kiwi/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Arch       string `json:"arch"`
	CGOEnabled bool   `json:"cgo_enabled"`
	Tags       string `json:"tags"`
}

// GetBuildInfo returns the ldflags values, filled in from the module's VCS
// stamp where they were not set
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if GitCommit == "unknown" {
				info.GitCommit = setting.Value
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				info.BuildTime = setting.Value
			}
		case "CGO_ENABLED":
			info.CGOEnabled = setting.Value == "1"
		case "-tags":
			info.Tags = setting.Value
		}
	}
	return info
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// GetVersion returns a simple version string
func GetVersion() string {
	if Version == "dev" {
		if commit := GetBuildInfo().GitCommit; commit != "unknown" {
			return "dev-" + shortCommit(commit)
		}
	}
	return Version
}

// GetDetailedVersion returns a one line description of the build
func GetDetailedVersion() string {
	info := GetBuildInfo()

	var b strings.Builder
	fmt.Fprintf(&b, "kiwi version %s", info.Version)
	if info.GitCommit != "unknown" {
		fmt.Fprintf(&b, " (commit %s)", shortCommit(info.GitCommit))
	}
	if info.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
			fmt.Fprintf(&b, " built on %s", t.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintf(&b, " built on %s", info.BuildTime)
		}
	}
	fmt.Fprintf(&b, " with %s for %s/%s", info.GoVersion, info.Platform, info.Arch)
	if info.Tags != "" {
		fmt.Fprintf(&b, " [%s]", info.Tags)
	}
	return b.String()
}

// PrintBuildInfo writes formatted build information to w
func PrintBuildInfo(w io.Writer) {
	info := GetBuildInfo()

	fmt.Fprintf(w, "kiwi - NES emulator\n")
	fmt.Fprintf(w, "Version:     %s\n", info.Version)
	fmt.Fprintf(w, "Git Commit:  %s\n", info.GitCommit)
	fmt.Fprintf(w, "Build Time:  %s\n", info.BuildTime)
	fmt.Fprintf(w, "Go Version:  %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform:    %s/%s\n", info.Platform, info.Arch)
	fmt.Fprintf(w, "CGO Enabled: %t\n", info.CGOEnabled)
	if info.Tags != "" {
		fmt.Fprintf(w, "Build Tags:  %s\n", info.Tags)
	}
}

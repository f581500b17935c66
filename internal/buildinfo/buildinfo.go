// Package buildinfo reports how the binary was built. Release builds set the
// variables below through -ldflags; otherwise the module and VCS metadata
// recorded by the Go toolchain are used.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	version = ""
	commit  = ""
	date    = ""
)

type Info struct {
	Version   string
	Commit    string
	Date      string
	Tags      string
	GoVersion string
}

func Read() Info {
	info := Info{Version: version, Commit: commit, Date: date, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if ok && bi != nil {
		if info.Version == "" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "-tags":
				info.Tags = s.Value
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}
	if info.Version == "" || info.Version == "(devel)" {
		info.Version = "dev"
	}
	return info
}

// Version returns the release version, or "dev" for local builds.
func Version() string {
	return Read().Version
}

// VersionWithTags returns the version string and tags if present.
func VersionWithTags() string {
	info := Read()
	if info.Tags == "" {
		return info.Version
	}
	return fmt.Sprintf("%s (tags: %s)", info.Version, info.Tags)
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Version: %s\n", i.Version)
	if i.Commit != "" {
		fmt.Fprintf(&b, "  Commit:  %s\n", i.Commit)
	}
	if i.Date != "" {
		fmt.Fprintf(&b, "  Built:   %s\n", i.Date)
	}
	if i.Tags != "" {
		fmt.Fprintf(&b, "  Tags:    %s\n", i.Tags)
	}
	fmt.Fprintf(&b, "  Runtime: %s\n", i.GoVersion)
	return b.String()
}

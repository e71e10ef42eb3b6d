// Package version reports how the dichotomy binary was built.
//
// Release builds stamp the variables below with ldflags:
//
//	-X github.com/Aman-CERP/dichotomy/pkg/version.Version=$(VERSION)
//	-X github.com/Aman-CERP/dichotomy/pkg/version.Commit=$(COMMIT)
//	-X github.com/Aman-CERP/dichotomy/pkg/version.Date=$(DATE)
//
// Unstamped builds (go install, go run) fall back to the module and VCS
// data the toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

const unknown = "unknown"

var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var (
	once   sync.Once
	cached Info
)

// Get returns the build description, resolved once per process.
func Get() Info {
	once.Do(func() {
		cached = resolve(Version, Commit, Date, debug.ReadBuildInfo)
	})
	return cached
}

// resolve fills fields left unstamped by ldflags from the embedded build info.
func resolve(ver, commit, date string, read func() (*debug.BuildInfo, bool)) Info {
	info := Info{
		Version:   ver,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := read()
	if !ok || bi == nil {
		return info
	}
	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.Date == unknown {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String renders the one-line form used by --version.
func (i Info) String() string {
	commit := i.Commit
	if i.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("dichotomy %s (%s, %s, %s %s)", i.Version, commit, i.Date, i.GoVersion, i.Platform)
}

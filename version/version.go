package version

import (
	"runtime/debug"
	"strings"
)

// Module is the import path the version is looked up under in build info.
const Module = "github.com/kbukum/rxscenario"

// Version overrides build-info detection when set with -ldflags.
var Version = ""

// Info describes the harness build in use.
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get returns the harness version. When the harness is a dependency of the
// running test binary its module version is used; in its own repository the
// VCS revision is reported against "dev".
func Get() Info {
	bi, ok := debug.ReadBuildInfo()
	return fromBuildInfo(bi, ok, Version)
}

func fromBuildInfo(bi *debug.BuildInfo, ok bool, override string) Info {
	info := Info{Version: "dev"}
	if ok && bi != nil {
		info.GoVersion = bi.GoVersion
		if bi.Main.Path == Module {
			info.Version = normalize(bi.Main.Version)
		} else {
			for _, dep := range bi.Deps {
				if dep.Path != Module {
					continue
				}
				if dep.Replace != nil {
					dep = dep.Replace
				}
				info.Version = normalize(dep.Version)
				break
			}
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Revision = s.Value
				if len(info.Revision) > 7 {
					info.Revision = info.Revision[:7]
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			}
		}
	}
	if override != "" {
		info.Version = override
	}
	return info
}

// "(devel)" and empty versions come from local builds.
func normalize(v string) string {
	if v == "" || v == "(devel)" {
		return "dev"
	}
	return v
}

// String returns the version with the revision appended for dev builds.
func (i Info) String() string {
	if i.Version != "dev" || i.Revision == "" {
		return i.Version
	}
	parts := []string{i.Version, i.Revision}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

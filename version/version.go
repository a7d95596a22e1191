// Package version tells which build of the looper is running.
package version

import "runtime/debug"

// Version can be set when building:
// go build -ldflags "-X github.com/vsariola/looper/version.Version=$(git describe --dirty)"
var Version string

// Revision returns the short VCS revision the binary was built from, with a
// "-dirty" suffix if the tree had local changes. Empty if not known.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		revision += "-dirty"
	}
	return revision
}

// String returns Version if it was set, otherwise the revision, otherwise
// "devel".
func String() string {
	if Version != "" {
		return Version
	}
	if r := Revision(); r != "" {
		return r
	}
	return "devel"
}

// GoVersion returns the version of Go the binary was built with.
func GoVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

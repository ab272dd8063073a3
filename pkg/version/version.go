package version

import "runtime/debug"

// Version is the current application version.
// This is a var (not const) so it can be overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/loanwalk/pkg/version.Version=v1.2.3"
var Version = "v0.3.0"

// Commit is the VCS revision, filled from build info when not set by ldflags.
var Commit = ""

// String returns "v0.3.0" or "v0.3.0 (abc1234)" when the revision is known.
func String() string {
	commit := Commit
	if commit == "" {
		commit = buildRevision()
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit == "" {
		return Version
	}
	return Version + " (" + commit + ")"
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

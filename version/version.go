package version

import "runtime/debug"

// These vars are set at build time via:
//
//	go build -ldflags "-X pgmy/version.Tag=v1.0.0 -X pgmy/version.GitCommit=abc1234 -X pgmy/version.BuildTime=2026-02-26T00:00:00Z"
var (
	Tag       = "dev"
	GitCommit = "" // empty = auto-detect from build info
	BuildTime = "" // empty = auto-detect from build info
)

// Server is the version string the handshake packet advertises to the
// MySQL client and the value the @@version intercept returns.
const Server = "8.0.0-gateway"

// Comment is the value the @@version_comment intercept returns.
const Comment = "PostMyRustache"

// String is the gateway's own build identity, used in log lines, not on
// the wire.
func String() string {
	commit, buildTime := GitCommit, BuildTime
	if commit == "" || buildTime == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					if commit == "" && len(s.Value) >= 8 {
						commit = s.Value[:8]
					}
				case "vcs.time":
					if buildTime == "" {
						buildTime = s.Value
					}
				}
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}
	return "pgmy " + Tag + ", commit " + commit + ", built " + buildTime
}

// Package version holds build metadata set through -ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitepipe/internal/version.Version=v0.3.0"
package version

var (
	Version   = "dev"
	GitCommit = "none"
	BuildTime = "unknown"
)

// String renders the line printed by `sitepipe --version`.
func String() string {
	return Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}

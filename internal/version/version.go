// Package version holds docsearch build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/docsearch/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build for page footers and logs, e.g. "v1.2.0 (abc1234)".
func String() string {
	if Commit == "" || Commit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}

// UserAgent is the User-Agent a docsearch binary sends to the backend.
func UserAgent(binary string) string {
	return binary + "/" + Version
}

// SPDX-License-Identifier: MIT

// Package version carries build metadata injected through ldflags.
package version

import "fmt"

var (
	// Version is the current application version.
	Version = "v0.1.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the version banner printed by -version.
func String() string {
	return fmt.Sprintf("ssyoutube %s (commit %s, built %s)", Version, Commit, Date)
}

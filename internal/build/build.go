// Package build holds metadata stamped into the binary at link time.
package build

var (
	// Version is the release version, overridden via -ldflags.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Package version exposes build identity injected at link time.
package version

// Commit is set via -ldflags "-X district-api/internal/version.Commit=<sha>".
var Commit = "dev"

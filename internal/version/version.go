// Package version holds the build version of ppi.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/NielsdaWheelz/ppi/internal/version.Version=v1.2.3".
var Version = "dev"

// Package version exposes build metadata shared by the crew-alert binaries.
//
// Version, Commit and BuildTime are set with -ldflags "-X" at release time.
package version

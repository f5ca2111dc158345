// Package version holds build metadata.
package version

// Version is the application version, set at build time with
//
//	-ldflags "-X github.com/ndewijer/Virtual-Portfolio-Ledger/internal/version.Version=v1.2.3"
var Version = "dev"

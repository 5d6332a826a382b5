// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for keypipe.
//
// Version information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/j-sow/keypipe/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

// These variables are set via -ldflags at build time.
var (
	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"

	// GitCommit is the short git SHA of the build, with GitDirty set
	// to "true" when the working tree had uncommitted changes.
	GitCommit = "unknown"
	GitDirty  = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Info returns a one-line version string suitable for --version output.
func Info() string {
	commit := GitCommit
	if GitDirty == "true" {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}

// Full returns detailed version information including the Go runtime
// and target platform. Exposed through "keypipe version --full".
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

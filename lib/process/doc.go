// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers: fatal error
// reporting to stderr for errors raised before the structured logger
// exists, and the exit-code taxonomy that lets the listener
// distinguish a startup failure (the pipe could not be acquired) from
// an ordinary error. All raw stderr output in keypipe funnels through
// this package or the usage text in cmd/keypipe.
package process

// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for keypipe packages.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with time.After fallback) so that tests exercising blocking
// pipe operations never hang the suite: a FIFO open that waits for a
// writer, or a read that waits for a byte, fails the test after the
// timeout instead of wedging it.
//
// Helpers call t.Fatalf on failure rather than returning errors, since
// test setup failures are not recoverable.
package testutil

// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package fifo owns a named pipe (FIFO) as a scoped resource. A [Pipe]
// is created (or reused) at a filesystem path, opened for reading, read
// one byte at a time, and unlinked when the owning process is done with
// it.
//
// Opening a FIFO for reading blocks until a writer connects; [Pipe.Open]
// makes that wait cancellable through a context. Each read reports an
// explicit [ReadStatus] — a byte arrived, the writer side drained, or
// the read failed — so callers never have to infer the pipe's state
// from a zero-byte read.
//
// The pipe is a single-reader channel: exactly one process should hold
// the read end at a time. Nothing here multiplexes concurrent writers;
// byte interleaving between simultaneous writers is whatever the
// operating system provides.
package fifo

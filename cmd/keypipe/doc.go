// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// keypipe relays single characters from a named pipe into an
// append-only log file.
//
// The listener creates (or reuses) a FIFO at the pipe path, blocks
// until a writer connects, and then reads one byte at a time. Every
// byte except the sentinel is appended to the output log followed by a
// newline; the sentinel byte (q by default) stops the listener. The
// pipe is unlinked on every exit path, including SIGINT and SIGTERM.
//
// Usage:
//
//	keypipe listen [--pipe path] [--output path] [--sentinel char]
//	keypipe send [--pipe path] [--quit] [characters...]
//	keypipe version
//
// Exit codes: 0 after a clean sentinel- or signal-triggered shutdown,
// 2 when the pipe cannot be acquired at startup (for example the pipe
// path is occupied by a regular file), 1 for anything else.
//
// Diagnostics go to stderr through a structured logger; the output log
// carries only relayed characters.
package main

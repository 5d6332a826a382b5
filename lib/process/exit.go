// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for keypipe binaries. ExitStartupFailure is reserved for
// errors that prevent the listener from ever entering its loop, such
// as the pipe path being occupied by a regular file; scripts watching
// the listener can tell "never started" from "failed while running".
const (
	ExitSuccess        = 0
	ExitFailure        = 1
	ExitStartupFailure = 2
)

// codedError carries a specific process exit code alongside an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

// WithCode wraps err so that ExitCode reports code for it. A nil err
// returns nil.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// ExitCode returns the exit code attached to err via WithCode. A nil
// err reports ExitSuccess; errors without an attached code report
// ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return ExitFailure
}

// Fatal writes "error: err" to stderr and exits with the error's exit
// code. This is the standard keypipe entrypoint error handler; use it
// in main() for errors from command functions where the structured
// logger may not be initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(ExitCode(err))
}

// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal appends relayed characters to a flat output file,
// one character per line. The file is opened lazily in append mode on
// the first Record call, so an idle listener leaves no file behind,
// and the handle is held for the journal's lifetime. There is no
// rotation and no size bound: the journal is a debugging trace, not a
// managed log.
package journal

import (
	"fmt"
	"os"
)

// Journal is an append-only character log. Methods are called from the
// single relay goroutine; the journal does no internal locking.
type Journal struct {
	path string
	file *os.File
}

// New returns a Journal that will write to path. The file itself is
// not touched until the first Record call.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the output file path.
func (j *Journal) Path() string {
	return j.path
}

// Record appends one character and a trailing newline to the output
// file, creating the file on first use.
func (j *Journal) Record(b byte) error {
	if j.file == nil {
		file, err := os.OpenFile(j.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening output log %s: %w", j.path, err)
		}
		j.file = file
	}

	if _, err := j.file.Write([]byte{b, '\n'}); err != nil {
		return fmt.Errorf("appending %q to output log %s: %w", b, j.path, err)
	}
	return nil
}

// Close releases the append handle if one was opened. Safe to call
// when no Record ever ran.
func (j *Journal) Close() error {
	if j.file == nil {
		return nil
	}
	file := j.file
	j.file = nil
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing output log %s: %w", j.path, err)
	}
	return nil
}

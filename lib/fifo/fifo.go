// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ErrNotNamedPipe is returned by Create when the pipe path exists but
// is occupied by something other than a FIFO (a regular file, a
// directory, a socket). Create never deletes or overwrites a foreign
// filesystem object; the caller must resolve the conflict.
var ErrNotNamedPipe = errors.New("path exists but is not a named pipe")

// ReadStatus classifies the outcome of a single-byte read from the
// pipe. Every ReadByte call reports exactly one of these; callers
// handle each case explicitly instead of inferring state from a
// zero-byte read.
type ReadStatus int

const (
	// ByteRead means one byte was available and has been returned.
	ByteRead ReadStatus = iota

	// Drained means every writer has closed its end of the pipe. No
	// byte was returned and no side effects occurred. The caller
	// reopens the pipe to block for the next writer.
	Drained

	// ReadFailed means the read failed at the descriptor level (for
	// example the pipe was closed out from under the reader). The
	// accompanying error describes the failure.
	ReadFailed
)

// Pipe is a named pipe owned by this process for the duration of a
// listen session. Create acquires the path, Open attaches the read
// end, and Remove unlinks the path when the session is over.
//
// Open, ReadByte, and Close may be called from different goroutines:
// Close from a watcher goroutine unblocks a pending ReadByte.
type Pipe struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// Create ensures a named pipe exists at path and returns a Pipe owning
// it. An existing FIFO at the path is reused as-is (the inode is kept,
// so a stale pipe left by a crashed listener keeps working). If the
// path is occupied by anything other than a FIFO, Create fails with an
// error wrapping ErrNotNamedPipe.
func Create(path string) (*Pipe, error) {
	info, err := os.Lstat(path)
	switch {
	case err == nil:
		if info.Mode()&os.ModeNamedPipe == 0 {
			return nil, fmt.Errorf("pipe path %s: %w (found mode %v)", path, ErrNotNamedPipe, info.Mode())
		}
		// Existing FIFO: reuse it.
	case errors.Is(err, os.ErrNotExist):
		if err := unix.Mkfifo(path, 0o622); err != nil {
			return nil, fmt.Errorf("creating named pipe %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("inspecting pipe path %s: %w", path, err)
	}

	return &Pipe{path: path}, nil
}

// Path returns the filesystem path of the pipe.
func (p *Pipe) Path() string {
	return p.path
}

// Open attaches the read end of the pipe. The underlying open(2)
// blocks until a writer connects — that rendezvous is the listener's
// idle state, not an error. Cancelling the context aborts the wait and
// returns ctx.Err().
func (p *Pipe) Open(ctx context.Context) error {
	p.mu.Lock()
	alreadyOpen := p.file != nil
	p.mu.Unlock()
	if alreadyOpen {
		return fmt.Errorf("pipe %s is already open for reading", p.path)
	}

	type openResult struct {
		file *os.File
		err  error
	}
	results := make(chan openResult, 1)
	go func() {
		file, err := os.OpenFile(p.path, os.O_RDONLY, 0)
		results <- openResult{file: file, err: err}
	}()

	select {
	case result := <-results:
		if result.err != nil {
			return fmt.Errorf("opening named pipe %s for reading: %w", p.path, result.err)
		}
		p.mu.Lock()
		p.file = result.file
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		// The open goroutine is stuck until a writer connects. Connect
		// a throwaway non-blocking writer to complete the rendezvous,
		// then discard whatever the open produced. The writer open is
		// retried because it races the goroutine's entry into open(2):
		// before a reader is registered, O_WRONLY|O_NONBLOCK fails
		// with ENXIO and completes nothing.
		go func() {
			for {
				if writer, err := os.OpenFile(p.path, os.O_WRONLY|unix.O_NONBLOCK, 0); err == nil {
					writer.Close()
				}
				select {
				case result := <-results:
					if result.file != nil {
						result.file.Close()
					}
					return
				case <-time.After(10 * time.Millisecond):
				}
			}
		}()
		return ctx.Err()
	}
}

// ReadByte blocks until one byte is available and returns it with
// status ByteRead. When every writer has closed its end, it returns
// status Drained. Descriptor-level failures return ReadFailed with the
// underlying error. A concurrent Close unblocks a pending ReadByte,
// which then reports ReadFailed.
func (p *Pipe) ReadByte() (byte, ReadStatus, error) {
	p.mu.Lock()
	file := p.file
	p.mu.Unlock()
	if file == nil {
		return 0, ReadFailed, fmt.Errorf("pipe %s is not open for reading", p.path)
	}

	var buffer [1]byte
	for {
		bytesRead, err := file.Read(buffer[:])
		if bytesRead == 1 {
			return buffer[0], ByteRead, nil
		}
		if errors.Is(err, io.EOF) {
			return 0, Drained, nil
		}
		if err != nil {
			return 0, ReadFailed, fmt.Errorf("reading from named pipe %s: %w", p.path, err)
		}
		// Zero bytes without an error: read again.
	}
}

// Close releases the read end if it is open. Safe to call from any
// goroutine and safe to call repeatedly; closing unblocks a pending
// ReadByte.
func (p *Pipe) Close() error {
	p.mu.Lock()
	file := p.file
	p.file = nil
	p.mu.Unlock()
	if file == nil {
		return nil
	}
	return file.Close()
}

// Remove unlinks the pipe path. An already-removed path is not an
// error, so Remove is safe in a defer that runs on every exit path.
func (p *Pipe) Remove() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing named pipe %s: %w", p.path, err)
	}
	return nil
}

// OpenWriter opens the named pipe at path for writing without
// blocking. When no listener holds the read end, the open fails with
// ENXIO and OpenWriter reports that a listener is missing — the
// caller's cue that there is nothing to send to.
func OpenWriter(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			return nil, fmt.Errorf("no listener reading from %s: %w", path, err)
		}
		return nil, fmt.Errorf("opening named pipe %s for writing: %w", path, err)
	}
	return file, nil
}

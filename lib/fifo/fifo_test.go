// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/j-sow/keypipe/lib/testutil"
	"golang.org/x/sys/unix"
)

func TestCreateNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")

	pipe, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pipe.Path() != path {
		t.Errorf("Path() = %q, want %q", pipe.Path(), path)
	}

	info, err := os.Lstat(path)
	if err != nil {
		t.Fatalf("stat created pipe: %v", err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		t.Errorf("created path has mode %v, want a named pipe", info.Mode())
	}
}

func TestCreateReusesExistingPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	if err := unix.Mkfifo(path, 0o622); err != nil {
		t.Fatalf("pre-creating pipe: %v", err)
	}
	inodeBefore := inode(t, path)

	if _, err := Create(path); err != nil {
		t.Fatalf("Create over existing pipe: %v", err)
	}

	if inodeAfter := inode(t, path); inodeAfter != inodeBefore {
		t.Errorf("pipe inode changed from %d to %d; existing pipe should be reused", inodeBefore, inodeAfter)
	}
}

func TestCreateRejectsNonPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	if err := os.WriteFile(path, []byte("occupied"), 0o644); err != nil {
		t.Fatalf("creating conflicting file: %v", err)
	}

	_, err := Create(path)
	if err == nil {
		t.Fatal("Create over a regular file: expected error, got nil")
	}
	if !errors.Is(err, ErrNotNamedPipe) {
		t.Errorf("error = %v, want ErrNotNamedPipe", err)
	}

	// The conflicting file must survive untouched.
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("reading conflicting file after failed Create: %v", readErr)
	}
	if string(content) != "occupied" {
		t.Errorf("conflicting file content = %q, want %q", content, "occupied")
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	pipe, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := pipe.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Lstat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("pipe path still exists after Remove (stat err: %v)", err)
	}

	// A second Remove is a no-op, not an error.
	if err := pipe.Remove(); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestOpenCancelled(t *testing.T) {
	pipe, err := Create(filepath.Join(t.TempDir(), "pipe"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	openErrs := make(chan error, 1)
	go func() {
		openErrs <- pipe.Open(ctx)
	}()

	// No writer ever connects; cancellation must abort the wait.
	cancel()
	err = testutil.RequireReceive(t, openErrs, 5*time.Second, "cancelled Open returning")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Open after cancel = %v, want context.Canceled", err)
	}
}

func TestOpenCancelledBeforeOpenStarts(t *testing.T) {
	pipe, err := Create(filepath.Join(t.TempDir(), "pipe"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A context that is dead on arrival forces the worst ordering: the
	// rendezvous helper can start before the reader-side open(2) is
	// even registered.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pipe.Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open with pre-cancelled context = %v, want context.Canceled", err)
	}

	// The helper must eventually release the pending reader open.
	// While the reader is still pinned, a non-blocking writer open
	// succeeds; once it is released, there is no reader to attach to
	// and the open fails.
	deadline := time.Now().Add(5 * time.Second)
	for {
		writer, err := OpenWriter(pipe.Path())
		if err != nil {
			break
		}
		writer.Close()
		if time.Now().After(deadline) {
			t.Fatal("reader side still attached after cancelled Open")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReadByteAndDrain(t *testing.T) {
	pipe, writer := openPair(t)
	defer pipe.Close()

	if _, err := writer.Write([]byte("ab")); err != nil {
		t.Fatalf("writing to pipe: %v", err)
	}

	for _, want := range []byte{'a', 'b'} {
		b, status, err := pipe.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte: %v", err)
		}
		if status != ByteRead {
			t.Fatalf("ReadByte status = %v, want ByteRead", status)
		}
		if b != want {
			t.Errorf("ReadByte = %q, want %q", b, want)
		}
	}

	// Closing the only writer drains the pipe.
	writer.Close()
	_, status, err := pipe.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte after writer close: %v", err)
	}
	if status != Drained {
		t.Errorf("ReadByte status = %v, want Drained", status)
	}
}

func TestCloseUnblocksRead(t *testing.T) {
	pipe, writer := openPair(t)
	defer writer.Close()

	type readResult struct {
		status ReadStatus
		err    error
	}
	results := make(chan readResult, 1)
	go func() {
		_, status, err := pipe.ReadByte()
		results <- readResult{status: status, err: err}
	}()

	// Give the reader a moment to block, then close under it.
	time.Sleep(50 * time.Millisecond)
	if err := pipe.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	result := testutil.RequireReceive(t, results, 5*time.Second, "blocked ReadByte returning after Close")
	if result.status != ReadFailed {
		t.Errorf("ReadByte status after Close = %v, want ReadFailed", result.status)
	}
	if result.err == nil {
		t.Error("ReadByte after Close: expected an error, got nil")
	}
}

func TestOpenWriterWithoutListener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	if err := unix.Mkfifo(path, 0o622); err != nil {
		t.Fatalf("creating pipe: %v", err)
	}

	if _, err := OpenWriter(path); err == nil {
		t.Fatal("OpenWriter with no reader: expected error, got nil")
	}
}

// openPair creates a pipe, attaches the read end, and connects a
// blocking writer. The blocking writer-side open doubles as the
// rendezvous that lets the reader-side open complete.
func openPair(t *testing.T) (*Pipe, *os.File) {
	t.Helper()

	pipe, err := Create(filepath.Join(t.TempDir(), "pipe"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	openErrs := make(chan error, 1)
	go func() {
		openErrs <- pipe.Open(context.Background())
	}()

	writer, err := os.OpenFile(pipe.Path(), os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening writer side: %v", err)
	}
	t.Cleanup(func() { writer.Close() })
	t.Cleanup(func() { pipe.Close() })

	if err := testutil.RequireReceive(t, openErrs, 5*time.Second, "reader open completing"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return pipe, writer
}

func inode(t *testing.T, path string) uint64 {
	t.Helper()
	var stat syscall.Stat_t
	if err := syscall.Lstat(path, &stat); err != nil {
		t.Fatalf("lstat %s: %v", path, err)
	}
	return stat.Ino
}

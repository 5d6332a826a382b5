// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay bridges a named pipe onto an append-only character
// journal. A single goroutine blocks on the pipe, appends each
// non-sentinel byte to the journal, and returns cleanly when the
// sentinel byte arrives. The relay never stops for bad input: journal
// write failures and transient read failures are reported to the
// diagnostic logger and the loop keeps running. Only the sentinel (or
// context cancellation) ends it.
package relay

import (
	"context"
	"log/slog"

	"github.com/j-sow/keypipe/lib/fifo"
	"github.com/j-sow/keypipe/lib/journal"
)

// DefaultSentinel is the byte that stops the relay. Writers send it to
// shut the listener down through the pipe itself.
const DefaultSentinel byte = 'q'

// Relay owns one listen session: a pipe to read from, a journal to
// append to, and the sentinel that ends the session.
type Relay struct {
	pipe     *fifo.Pipe
	journal  *journal.Journal
	logger   *slog.Logger
	sentinel byte
}

// New assembles a relay. A zero sentinel selects DefaultSentinel.
func New(pipe *fifo.Pipe, j *journal.Journal, logger *slog.Logger, sentinel byte) *Relay {
	if sentinel == 0 {
		sentinel = DefaultSentinel
	}
	return &Relay{
		pipe:     pipe,
		journal:  j,
		logger:   logger,
		sentinel: sentinel,
	}
}

// Run executes the relay loop until the sentinel arrives (nil return)
// or the context is cancelled (ctx.Err() return). The pipe's read end
// is closed on every return path; removing the pipe path is the
// caller's responsibility so that it happens even when Run is never
// reached.
//
// The loop blocks in two places, both deliberate: opening the pipe
// waits for the first writer, and each read waits for the next byte.
// When every writer closes its end, the relay reopens the pipe and
// blocks for the next writer instead of spinning on end-of-stream.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.pipe.Open(ctx); err != nil {
		return err
	}
	defer r.pipe.Close()

	// Close the pipe out from under a blocked read when the context is
	// cancelled. The watcher exits with Run.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			r.pipe.Close()
		case <-watcherDone:
		}
	}()

	for {
		b, status, err := r.pipe.ReadByte()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch status {
		case fifo.ByteRead:
			if b == r.sentinel {
				r.logger.Info("sentinel received, stopping",
					"sentinel", string(r.sentinel))
				return nil
			}
			if err := r.journal.Record(b); err != nil {
				// Availability over durability: the byte is lost but
				// the listener stays up for the next one.
				r.logger.Error("recording character", "error", err)
			}
		case fifo.Drained:
			r.logger.Debug("all writers disconnected, waiting for the next one")
			if err := r.reopen(ctx); err != nil {
				return err
			}
		case fifo.ReadFailed:
			// Treated like a drained pipe: recover locally rather than
			// escalate, matching the loop's only-the-sentinel-stops-it
			// contract.
			r.logger.Warn("pipe read failed, reattaching", "error", err)
			if err := r.reopen(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *Relay) reopen(ctx context.Context) error {
	r.pipe.Close()
	if err := r.pipe.Open(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		// Cancellation can race the reopen; the watcher has already
		// taken its shot at the old descriptor, so check here instead
		// of blocking on a read nothing will interrupt.
		r.pipe.Close()
		return ctx.Err()
	}
	return nil
}

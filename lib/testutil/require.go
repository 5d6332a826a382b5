// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// RequireReceive reads one value from ch within timeout, or fails the
// test. Every keypipe test that waits on a blocking pipe operation
// funnels through this helper, so a wedged FIFO read or open fails the
// test with the given message instead of hanging the suite.
//
//	err := testutil.RequireReceive(t, done, 5*time.Second, "relay exiting")
func RequireReceive[T any](t *testing.T, ch <-chan T, timeout time.Duration, message string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", message)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, message)
	}
	panic("unreachable")
}

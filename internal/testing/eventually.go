// Package orcatest holds small helpers shared by tests that wait on
// asynchronous state, such as the watch multiplexer's background sessions.
package orcatest

import (
	"testing"
	"time"
)

// Eventually re-checks cond every interval until it holds, failing the test
// once timeout elapses. msg, when given, replaces the generic failure text.
func Eventually(t testing.TB, timeout, interval time.Duration, cond func() bool, msg ...string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			if len(msg) > 0 && msg[0] != "" {
				t.Fatal(msg[0])
			}
			t.Fatalf("condition still false after %v", timeout)
		}
		time.Sleep(interval)
	}
}

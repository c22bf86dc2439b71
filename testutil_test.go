package async_test

import (
	"testing"
	"time"

	"github.com/quietloop/strand"
)

// runAsync runs fn as a root Strand on its own goroutine, leaving the
// calling test goroutine free to drive a VirtualBridge's clock while
// fn is suspended.
func runAsync[T any](ex *async.Executor, fn func(s *async.Strand) T) <-chan async.Try[T] {
	out := make(chan async.Try[T], 1)
	go func() { out <- async.Run(ex, fn) }()
	return out
}

// drain repeatedly advances bridge by one millisecond of virtual time
// per poll until out has a result. Stepping the clock, rather than
// jumping straight to the next pending deadline, gives every strand
// time to arm its own timers before an earlier-armed, later-due timer
// can fire, and tolerates the race between the root Strand's goroutine
// starting and it arming its first timer.
func drain[T any](t *testing.T, bridge *async.VirtualBridge, out <-chan async.Try[T]) async.Try[T] {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		select {
		case result := <-out:
			return result
		default:
		}
		bridge.Advance(time.Millisecond)
		select {
		case result := <-out:
			return result
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the root Strand to finish")
		}
		time.Sleep(time.Millisecond)
	}
}

package async

import "fmt"

// A Setup arms a host callback and optionally returns a cleanup that
// releases the armed resource. It is called at most once, synchronously,
// by Await/AwaitTry/NoAwait.
type Setup[T any] func(resolve func(Try[T])) (cleanup func())

func runSetupCatching[T any](setup Setup[T], resolve func(Try[T])) (cleanup func()) {
	defer func() {
		if v := recover(); v != nil {
			resolve(Exn[T](valueToError(v)))
		}
	}()
	return setup(resolve)
}

func runBestEffort(f func()) {
	defer func() { recover() }()
	f()
}

// AwaitTry suspends the calling Strand until setup's resolve callback
// fires, and returns the delivered outcome without unwrapping it.
// Contract:
//
//  1. A fresh scope frame is allocated and registered with a cleanup
//     that, if run (by Cancel), delivers a CancelError.
//  2. setup runs; if it returns a cleanup d, d is run (best-effort)
//     whenever the eventual outcome is Exn, whether that Exn came from
//     a cancel sweep or from resolve being called directly.
//  3. The calling goroutine releases the baton and parks until resolve
//     fires, then reacquires the baton before returning — the point at
//     which control returns to the host loop.
//  4. resolve is fire-at-most-once: once the registry entry is gone,
//     further calls are silent no-ops (post-cancel arrival).
func AwaitTry[T any](s *Strand, setup Setup[T]) Try[T] {
	ex := s.ex
	id := ex.nextFrameID()
	cscope := s.scope.Child(id)

	resCh := make(chan Try[T], 1)
	var entry *registryEntry
	var release func()

	deliver := func(res Try[T]) {
		ex.reg.Lock()
		ok := entry.live
		if ok {
			entry.live = false
			ex.spliceLocked(entry)
		}
		ex.reg.Unlock()
		if !ok {
			return // post-cancel arrival
		}
		if res.IsExn() && release != nil {
			runBestEffort(release)
		}
		resCh <- res
	}

	cancelCleanup := func() { deliver(Exn[T](&CancelError{Scope: cscope})) }

	ex.reg.Lock()
	entry = &registryEntry{scope: cscope, cleanup: cancelCleanup, live: true}
	ex.entries = append(ex.entries, entry)
	ex.reg.Unlock()

	release = runSetupCatching(setup, deliver)

	s.fireSuspend()
	ex.baton.Unlock()
	res := <-resCh
	ex.baton.Lock()
	return res
}

// Await suspends like AwaitTry but unwraps the outcome, panicking with
// the wrapped error on Exn — the form ordinary Go code reads as
// direct-style.
func Await[T any](s *Strand, setup Setup[T]) T {
	return AwaitTry(s, setup).Unwrap()
}

// Await0 adapts a host callback of arity zero (no value, cannot fail).
func Await0(s *Strand, arm func(resume func()) (cleanup func())) {
	Await(s, func(resolve func(Try[struct{}])) func() {
		return arm(func() { resolve(Ok(struct{}{})) })
	})
}

// Await1 adapts a host callback of arity one (a value, cannot fail).
func Await1[T any](s *Strand, arm func(resume func(T)) (cleanup func())) T {
	return Await(s, func(resolve func(Try[T])) func() {
		return arm(func(v T) { resolve(Ok(v)) })
	})
}

// AwaitExn0 adapts a NodeJS-style (err) host callback.
func AwaitExn0(s *Strand, arm func(resume func(error)) (cleanup func())) {
	Await(s, func(resolve func(Try[struct{}])) func() {
		return arm(func(err error) {
			if err != nil {
				resolve(Exn[struct{}](err))
				return
			}
			resolve(Ok(struct{}{}))
		})
	})
}

// AwaitExn1 adapts a NodeJS-style (err, value) host callback.
func AwaitExn1[T any](s *Strand, arm func(resume func(error, T)) (cleanup func())) T {
	return Await(s, func(resolve func(Try[T])) func() {
		return arm(func(err error, v T) {
			if err != nil {
				resolve(Exn[T](err))
				return
			}
			resolve(Ok(v))
		})
	})
}

// NoAwait behaves like Await but does not suspend the caller: it
// returns immediately, after arming setup, and invokes f asynchronously
// — under the Executor's baton, like any other strand continuation —
// once the outcome arrives. Exposed for callers that want "fire and
// continue" without a dedicated root Strand.
func NoAwait[T any](s *Strand, setup Setup[T], f func(Try[T])) {
	ex := s.ex
	id := ex.nextFrameID()
	cscope := s.scope.Child(id)

	var entry *registryEntry
	var release func()

	deliver := func(res Try[T]) {
		ex.reg.Lock()
		ok := entry.live
		if ok {
			entry.live = false
			ex.spliceLocked(entry)
		}
		ex.reg.Unlock()
		if !ok {
			return
		}
		if res.IsExn() && release != nil {
			runBestEffort(release)
		}
		ex.wg.Go(func() error {
			ex.baton.Lock()
			ok := ex.panics.Try(func() { f(res) })
			ex.baton.Unlock()
			if !ok && ex.metrics != nil {
				ex.metrics.PanicsRecovered.Inc()
			}
			return nil
		})
	}

	cancelCleanup := func() { deliver(Exn[T](&CancelError{Scope: cscope})) }

	ex.reg.Lock()
	entry = &registryEntry{scope: cscope, cleanup: cancelCleanup, live: true}
	ex.entries = append(ex.entries, entry)
	ex.reg.Unlock()

	release = runSetupCatching(setup, deliver)
}

// AsyncIO runs f synchronously, converting a panic into an Exn.
func AsyncIO[T any](s *Strand, f func() T) Try[T] {
	return runCatching(f)
}

// AsyncIONoExn runs f synchronously, asserting it does not panic.
func AsyncIONoExn[T any](s *Strand, f func() T) T {
	result := runCatching(f)
	if result.IsExn() {
		panic(fmt.Errorf("async: AsyncIONoExn: unexpected panic: %w", result.Err()))
	}
	return result.Value()
}

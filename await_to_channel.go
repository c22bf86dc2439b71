package async

import "sync"

// AwaitToChannel bridges a streaming host callback into ch, built on a
// NoAwait-shaped registration rather than a single-shot await: report
// may be called any number of times with done=false before a final
// done=true call removes the registration. Every reported value,
// including the final one, is pushed onto ch in order, so a Receive
// loop observes the error (if any) as the last value rather than as a
// panic.
func AwaitToChannel[T any](s *Strand, ch *Channel[Try[T]], setup func(report func(res Try[T], done bool)) (cleanup func())) {
	ex := s.ex
	id := ex.nextFrameID()
	cscope := s.scope.Child(id)

	var entry *registryEntry
	var release func()
	var mu sync.Mutex
	live := true

	finish := func(res Try[T]) {
		ex.reg.Lock()
		ok := entry.live
		if ok {
			entry.live = false
			ex.spliceLocked(entry)
		}
		ex.reg.Unlock()

		mu.Lock()
		live = false
		mu.Unlock()

		if !ok {
			return
		}
		if res.IsExn() && release != nil {
			runBestEffort(release)
		}
		ch.Emit(res)
	}

	report := func(res Try[T], done bool) {
		if done {
			finish(res)
			return
		}
		mu.Lock()
		stillLive := live
		mu.Unlock()
		if stillLive {
			ch.Emit(res)
		}
	}

	cancelCleanup := func() { finish(Exn[T](&CancelError{Scope: cscope})) }

	ex.reg.Lock()
	entry = &registryEntry{scope: cscope, cleanup: cancelCleanup, live: true}
	ex.entries = append(ex.entries, entry)
	ex.reg.Unlock()

	release = runSetupCatchingStream(setup, report)
}

func runSetupCatchingStream[T any](setup func(func(Try[T], bool)) func(), report func(Try[T], bool)) (cleanup func()) {
	defer func() {
		if v := recover(); v != nil {
			report(Exn[T](valueToError(v)), true)
		}
	}()
	return setup(report)
}

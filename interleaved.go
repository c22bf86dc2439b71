package async

import "sync"

// InterleavedX runs each of actions cooperatively and returns every
// outcome in the actions' positional order.
//
// Each action runs on its own goroutine, but the launcher hands the
// Executor's baton to action i
// and blocks until it has run to its first suspension or to
// completion before launching action i+1 — exactly reproducing "each
// strand's first synchronous prefix executes before the next strand's"
// without needing an internal resumption-thunk channel. After that,
// whichever strand the baton next reaches runs next, matching "the
// host event-loop order prevails".
//
// If any completed outcome is finalize?, Cancel is swept once over the
// shared frame to tear down the remaining strands; their resulting
// cancel outcomes still arrive and are collected like any other.
func InterleavedX[T any](s *Strand, actions ...func(s *Strand) T) []Try[T] {
	n := len(actions)
	results := make([]Try[T], n)

	cid := s.ex.nextFrameID()
	inner := s.scope.Child(cid)

	var done sync.WaitGroup
	done.Add(n)

	var finalizeMu sync.Mutex
	finalizeSwept := false
	sweepIfFinalize := func(t Try[T]) bool {
		if !t.IsFinalize() {
			return false
		}
		finalizeMu.Lock()
		defer finalizeMu.Unlock()
		if finalizeSwept {
			return false
		}
		finalizeSwept = true
		return true
	}

	ex := s.ex
	for i, action := range actions {
		i, action := i, action
		settled := make(chan struct{})
		var once sync.Once
		notify := func() { once.Do(func() { close(settled) }) }
		cs := &Strand{ex: ex, scope: inner, onSuspend: notify}

		go func() {
			defer done.Done()
			ex.baton.Lock()
			res := runCatching(func() T { return action(cs) })
			notify() // covers an action that never suspended
			results[i] = res
			sweep := sweepIfFinalize(res)
			ex.baton.Unlock()
			if sweep {
				ex.Cancel(inner)
			}
		}()

		// Hand the baton to strand i and wait for its synchronous
		// prefix to end (suspend or complete) before moving on.
		ex.baton.Unlock()
		<-settled
		ex.baton.Lock()
	}

	// Everyone has been launched; release the baton so whoever is
	// still running can reach completion, then reclaim it once they
	// all have.
	ex.baton.Unlock()
	done.Wait()
	ex.baton.Lock()

	return results
}

// Interleaved is InterleavedX's symmetric surface: if any outcome is
// Exn, it throws the most significant one per Dominant; otherwise it
// returns every value in order.
func Interleaved[T any](s *Strand, actions ...func(s *Strand) T) []T {
	tries := InterleavedX(s, actions...)
	if len(tries) > 0 {
		if dom := dominant(tries); dom.IsExn() {
			panic(dom.Err())
		}
	}
	values := make([]T, len(tries))
	for i, t := range tries {
		values[i] = t.Value()
	}
	return values
}

func dominant[T any](tries []Try[T]) Try[T] {
	cur := tries[0]
	for _, next := range tries[1:] {
		cur = Dominant(cur, next)
	}
	return cur
}

package async

import "time"

// Cancelable mints a fresh frame, runs action with a Strand whose
// scope is extended by that frame, and on any return path — normal,
// panic, or propagated cancel — sweeps Cancel over the frame to tear
// down any NoAwait/Await leftovers still registered in it.
func Cancelable[T any](s *Strand, action func(s *Strand) Try[T]) (result Try[T]) {
	cid := s.ex.nextFrameID()
	inner := s.scope.Child(cid)
	defer s.ex.Cancel(inner)
	defer func() {
		if v := recover(); v != nil {
			result = Exn[T](valueToError(v))
		}
	}()
	result = action(s.withScope(inner))
	return
}

// FirstOf runs a and b; whichever finishes first wins, and the loser
// is canceled, its cancellation outcome suppressed. Built on Cancelable
// and InterleavedX rather than as a primitive of its own.
func FirstOf[T any](s *Strand, a, b func(s *Strand) T) T {
	race := func(action func(*Strand) T) func(*Strand) T {
		return func(cs *Strand) T {
			defer cs.Cancel() // must run even if action wins by panicking
			return action(cs)
		}
	}
	return Cancelable(s, func(cs *Strand) Try[T] {
		tries := InterleavedX(cs, race(a), race(b))
		return pickWinner(tries)
	}).Unwrap()
}

func pickWinner[T any](tries []Try[T]) Try[T] {
	for _, t := range tries {
		if !t.IsCancel() {
			return t
		}
	}
	return tries[0]
}

// Timeout races action against a d-duration wait. It returns
// action's value and true if action wins, or the zero value and false
// if the timer fires first.
func Timeout[T any](s *Strand, d time.Duration, action func(s *Strand) T) (T, bool) {
	type outcome struct {
		value T
		ok    bool
	}
	res := FirstOf(s,
		func(cs *Strand) outcome {
			Wait(cs, d)
			var zero T
			return outcome{zero, false}
		},
		func(cs *Strand) outcome {
			return outcome{action(cs), true}
		},
	)
	return res.value, res.ok
}

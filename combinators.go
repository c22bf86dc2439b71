package async

import "time"

// Wait suspends the calling Strand for d. d<=0 behaves like Yield
// ("next tick" rather than a synchronous no-op, per the host bridge's
// own zero-delay meaning).
func Wait(s *Strand, d time.Duration) {
	if d <= 0 {
		Yield(s)
		return
	}
	Await0(s, func(resume func()) func() {
		id := s.ex.bridge.SetTimeout(resume, d)
		return func() { s.ex.bridge.ClearTimeout(id) }
	})
}

// Yield suspends the calling Strand until the next tick: wait(0).
func Yield(s *Strand) {
	Await0(s, func(resume func()) func() {
		id := s.ex.bridge.SetTimeout(resume, 0)
		return func() { s.ex.bridge.ClearTimeout(id) }
	})
}

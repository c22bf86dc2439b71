package async_test

import (
	"testing"
	"time"

	"github.com/quietloop/strand"
	"github.com/stretchr/testify/require"
)

// P5: every await/no_await registered inside a cancelable block has
// its cleanup invoked exactly once once the block's action returns.
func TestCancelableSweepsOutstandingAwaits(t *testing.T) {
	ex := async.NewExecutor()

	cleanups := 0
	result := async.Run(ex, func(s *async.Strand) struct{} {
		return async.Cancelable(s, func(cs *async.Strand) async.Try[struct{}] {
			async.NoAwait(cs, func(resolve func(async.Try[struct{}])) func() {
				return func() { cleanups++ } // never resolved on its own
			}, func(async.Try[struct{}]) {})
			return async.Ok(struct{}{})
		}).Unwrap()
	})
	ex.Wait()

	require.True(t, result.IsOk())
	require.Equal(t, 1, cleanups)
}

// S6: inside a cancelable block, one strand calling cancel() tears
// down its sibling, whose outcome becomes a cancel.
func TestCancelableNested(t *testing.T) {
	bridge := async.NewVirtualBridge()
	ex := async.NewExecutor(async.WithBridge(bridge))

	out := runAsync(ex, func(s *async.Strand) []async.Try[int] {
		return async.Cancelable(s, func(cs *async.Strand) async.Try[[]async.Try[int]] {
			tries := async.InterleavedX(cs,
				func(inner *async.Strand) int { async.Wait(inner, time.Second); return 1 },
				func(inner *async.Strand) int { inner.Cancel(); return 2 },
			)
			return async.Ok(tries)
		}).Unwrap()
	})

	tries := drain(t, bridge, out).Unwrap()
	require.True(t, tries[0].IsCancel())
	require.True(t, tries[1].IsOk())
	require.Equal(t, 2, tries[1].Value())
}

// S5/loser-is-cancelled: FirstOf cancels whichever action did not win.
func TestFirstOfCancelsTheLoser(t *testing.T) {
	ex := async.NewExecutor()

	loserCanceled := false
	result := async.Run(ex, func(s *async.Strand) int {
		return async.FirstOf(s,
			func(cs *async.Strand) int {
				async.Await0(cs, func(resume func()) func() {
					return func() { loserCanceled = true } // resume is never called
				})
				return -1
			},
			func(cs *async.Strand) int { return 1 },
		)
	})

	require.Equal(t, 1, result.Unwrap())
	require.True(t, loserCanceled)
}

// S5: first_of re-throws the winner's error while still cancelling
// the loser.
func TestFirstOfPropagatesTheWinnersError(t *testing.T) {
	bridge := async.NewVirtualBridge()
	ex := async.NewExecutor(async.WithBridge(bridge))

	loserCanceled := false
	out := runAsync(ex, func(s *async.Strand) int {
		return async.FirstOf(s,
			func(cs *async.Strand) int { async.Wait(cs, 10*time.Millisecond); panic("e") },
			func(cs *async.Strand) int {
				async.Await0(cs, func(resume func()) func() {
					return func() { loserCanceled = true }
				})
				return 1
			},
		)
	})

	result := drain(t, bridge, out)
	require.True(t, result.IsExn())
	require.ErrorContains(t, result.Err(), "e")
	require.True(t, loserCanceled, "winning by panic must still cancel the loser")
}

// S3: timeout expires before the action finishes.
func TestTimeoutExpires(t *testing.T) {
	bridge := async.NewVirtualBridge()
	ex := async.NewExecutor(async.WithBridge(bridge))

	out := runAsync(ex, func(s *async.Strand) int {
		v, ok := async.Timeout(s, 50*time.Millisecond, func(cs *async.Strand) int {
			async.Wait(cs, time.Second)
			return 7
		})
		if ok {
			return v
		}
		return -1
	})

	require.Equal(t, -1, drain(t, bridge, out).Unwrap())
}

// S4: the action finishes before the timeout fires.
func TestTimeoutActionWins(t *testing.T) {
	bridge := async.NewVirtualBridge()
	ex := async.NewExecutor(async.WithBridge(bridge))

	out := runAsync(ex, func(s *async.Strand) int {
		v, ok := async.Timeout(s, time.Second, func(cs *async.Strand) int {
			async.Wait(cs, 10*time.Millisecond)
			return 7
		})
		if ok {
			return v
		}
		return -1
	})

	require.Equal(t, 7, drain(t, bridge, out).Unwrap())
}

package async_test

import (
	"testing"

	"github.com/quietloop/strand"
	"github.com/stretchr/testify/require"
)

func TestWaitGroupAwaitReturnsImmediatelyWhenAlreadyZero(t *testing.T) {
	var wg async.WaitGroup
	ex := async.NewExecutor()

	result := async.Run(ex, func(s *async.Strand) int {
		wg.Await(s)
		return 1
	})

	require.Equal(t, 1, result.Unwrap())
}

func TestWaitGroupAwaitResumesWhenCounterReachesZero(t *testing.T) {
	var wg async.WaitGroup
	wg.Add(2)
	ex := async.NewExecutor()

	result := async.Run(ex, func(s *async.Strand) []int {
		return async.Interleaved(s,
			func(cs *async.Strand) int { wg.Await(cs); return 1 },
			func(cs *async.Strand) int { wg.Done(); wg.Done(); return 2 },
		)
	})

	require.Equal(t, []int{1, 2}, result.Unwrap())
}

func TestWaitGroupNegativeCounterPanics(t *testing.T) {
	var wg async.WaitGroup
	require.Panics(t, func() { wg.Done() })
}

// Package async is a structured asynchronous runtime: promises,
// channels, and interleaved strands sitting on top of a single
// cooperatively scheduled event loop, with scoped, composable
// cancellation as its defining feature.
//
// Cancellation is the reason the other primitives exist in this shape.
// Any suspended [Await] can be torn down transitively by leaving the
// [Scope] it was registered under — so [Timeout] and [FirstOf] are
// derived from [Cancelable] rather than primitive. A [Scope] is an
// immutable path of frame ids; canceling one cancels every descendant.
//
// # Strands, not goroutines doing real work
//
// An [Executor] runs at most one piece of user code at a time — a
// single mutex, the "baton" — even though each suspended computation
// is, underneath, a real goroutine parked on a channel. This is not
// true parallelism: it is how this package captures a continuation in
// a language without delimited continuations. [Strand] is the handle
// code holds while it has the baton; [Await] releases it and blocks
// until the result arrives, then reacquires it before returning.
//
// # Suspension points
//
// [Await] and its adapters ([Await0], [Await1], [AwaitExn0],
// [AwaitExn1]) are the only places a Strand actually suspends.
// [Promise.Resolve] and [Channel.Emit] may be called from any
// goroutine, strand or not — bridging an external result in is a
// primary use case — but the listeners/waiters they wake resume
// strand code only by reacquiring the baton themselves.
//
// # Cancellation sweep
//
// [Cancelable] mints a frame and, on every return path, sweeps
// [Executor.Cancel] over it: every still-pending Await registered in
// the frame is delivered a [CancelError] and its cleanup (if any) is
// run. [FirstOf] and [Timeout] build on this: the loser of a race is
// canceled and its cancellation suppressed.
//
// # Strands running in parallel, cooperatively
//
// [InterleavedX] runs N actions as N goroutines serialized by the
// same baton, preserving positional result order and the invariant
// that each action's first synchronous prefix runs before the next
// action starts. [Interleaved] is its symmetric surface: if any
// outcome is an error, the most significant one (per [Dominant]) is
// (re-)thrown; otherwise every value is returned in order.
//
// # Root strands
//
// [Run] gives ordinary, non-strand Go code a synchronous entry point:
// it grabs the baton, runs a fresh root Strand to completion, and
// returns its [Try]. [Executor.Go] spawns a detached root strand that
// nobody awaits directly; an unrecovered panic in one is captured and
// re-raised by the next [Executor.Wait], the same way a panicking
// root coroutine used to crash this package's predecessor's Executor.Run.
package async

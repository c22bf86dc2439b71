package async

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// A registryEntry tags one outstanding await with the scope that must
// be left for it to be canceled, and the action that delivers a
// cancellation to it.
type registryEntry struct {
	scope   Scope
	cleanup func()
	live    bool
}

// An Executor owns the registry of outstanding awaits and the single
// "baton" mutex that keeps at most one Strand's user code running at
// any instant. Registry bookkeeping (reg) is a separate, much
// shorter-held lock: a timer firing on its own goroutine only ever
// needs reg, never the baton, to deliver a result into a parked Strand.
type Executor struct {
	baton sync.Mutex

	reg     sync.Mutex
	entries []*registryEntry
	nextID  int

	wg     errgroup.Group
	panics panicLedger

	bridge  HostBridge
	log     *slog.Logger
	metrics *Metrics
}

// An Option configures an Executor at construction time.
type Option func(*Executor)

// WithBridge overrides the HostBridge timers are armed against.
// Defaults to a RealBridge. Tests typically pass a VirtualBridge.
func WithBridge(b HostBridge) Option { return func(ex *Executor) { ex.bridge = b } }

// WithLogger attaches a structured logger. The Executor emits one debug
// record per Cancel sweep that tears down at least one entry; it logs
// nothing at scope creation or panic recovery, and never logs on the
// hot await/resolve/emit path.
func WithLogger(l *slog.Logger) Option { return func(ex *Executor) { ex.log = l } }

// WithMetrics attaches a Metrics sink for strand/scope/panic counters.
func WithMetrics(m *Metrics) Option { return func(ex *Executor) { ex.metrics = m } }

// NewExecutor returns an Executor backed by a RealBridge unless
// WithBridge overrides it.
func NewExecutor(opts ...Option) *Executor {
	ex := &Executor{bridge: NewRealBridge()}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

func (ex *Executor) debugf(msg string, args ...any) {
	if ex.log != nil {
		ex.log.Debug(msg, args...)
	}
}

func (ex *Executor) nextFrameID() int {
	ex.reg.Lock()
	ex.nextID++
	id := ex.nextID
	ex.reg.Unlock()
	return id
}

func (ex *Executor) newRootStrand() *Strand {
	return &Strand{ex: ex, scope: RootScope().Child(ex.nextFrameID())}
}

func (ex *Executor) spliceLocked(e *registryEntry) {
	for i, x := range ex.entries {
		if x == e {
			ex.entries = append(ex.entries[:i], ex.entries[i+1:]...)
			return
		}
	}
}

// Cancel walks the registry in insertion order and invokes the
// cleanup of every live entry in scope of scope. It never acquires the
// baton: it is usually invoked from strand code that already holds it
// (an explicit Strand.Cancel call, or Cancelable's deferred sweep), and
// InterleavedX's finalize sweep invokes it after releasing it; the
// cleanups it runs only ever touch the registry lock, never the baton,
// so there is nothing to deadlock against.
func (ex *Executor) Cancel(scope Scope) {
	ex.reg.Lock()
	var cleanups []func()
	for _, e := range ex.entries {
		if e.live && scope.Contains(e.scope) {
			cleanups = append(cleanups, e.cleanup)
		}
	}
	ex.reg.Unlock()

	if len(cleanups) == 0 {
		return
	}
	if ex.metrics != nil {
		ex.metrics.ScopesCanceled.Inc()
	}
	ex.debugf("async: canceling scope", "scope", scope.String(), "entries", len(cleanups))
	for _, cleanup := range cleanups {
		cleanup()
	}
}

// Go spawns fn as a detached root Strand: a new goroutine that
// acquires the baton and runs fn to completion. Root strands spawned
// this way are not cancelable; a caller that needs to stop one must
// cooperate with it some other way. An unrecovered panic inside fn is
// captured and re-raised by the next Wait call.
func (ex *Executor) Go(fn func(s *Strand)) {
	if ex.metrics != nil {
		ex.metrics.StrandsSpawned.Inc()
	}
	ex.wg.Go(func() error {
		s := ex.newRootStrand()
		ex.baton.Lock()
		ok := ex.panics.Try(func() { fn(s) })
		ex.baton.Unlock()
		if !ok && ex.metrics != nil {
			ex.metrics.PanicsRecovered.Inc()
		}
		return nil
	})
}

// Wait blocks until every Strand spawned with Go has finished, then
// re-panics any panic they left unrecovered. errgroup.Group.Wait does
// the actual blocking; its error return is always nil here because
// panics never leave Go's closure as a returned error, only as
// entries in panics.
func (ex *Executor) Wait() {
	_ = ex.wg.Wait()
	ex.panics.Repanic()
}

// Run is the synchronous entry point into the async world for
// ordinary Go code: it hands the calling goroutine the baton, runs fn
// as a fresh root Strand, and returns its outcome as a Try, converting
// any panic the way every other strand boundary does.
func Run[T any](ex *Executor, fn func(s *Strand) T) Try[T] {
	s := ex.newRootStrand()
	ex.baton.Lock()
	result := runCatching(func() T { return fn(s) })
	ex.baton.Unlock()
	return result
}

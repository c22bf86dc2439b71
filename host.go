package async

import (
	"sync"
	"time"
)

// A TimerId identifies a pending timer armed through a HostBridge. It
// is opaque to callers.
type TimerId uint64

// A HostBridge is the only thing this package asks its environment to
// supply: schedule a callback no sooner than d, and cancel a pending
// one. SetTimeout must invoke cb at most once unless cancelled;
// ClearTimeout is idempotent and a no-op once cb has fired.
//
// A zero or negative d means "next tick": run as soon as the host loop
// is free, not synchronously. This is also the primitive Yield uses.
type HostBridge interface {
	SetTimeout(cb func(), d time.Duration) TimerId
	ClearTimeout(TimerId)
}

// RealBridge is a HostBridge backed by time.AfterFunc: arm with
// time.AfterFunc, cancel with Stop.
type RealBridge struct {
	mu      sync.Mutex
	timers  map[TimerId]*time.Timer
	nextID  TimerId
}

// NewRealBridge returns a HostBridge backed by the real wall clock.
func NewRealBridge() *RealBridge {
	return &RealBridge{timers: make(map[TimerId]*time.Timer)}
}

// SetTimeout implements HostBridge.
func (b *RealBridge) SetTimeout(cb func(), d time.Duration) TimerId {
	if d < 0 {
		d = 0
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.mu.Unlock()

	t := time.AfterFunc(d, func() {
		b.mu.Lock()
		delete(b.timers, id)
		b.mu.Unlock()
		cb()
	})

	b.mu.Lock()
	b.timers[id] = t
	b.mu.Unlock()

	return id
}

// ClearTimeout implements HostBridge.
func (b *RealBridge) ClearTimeout(id TimerId) {
	b.mu.Lock()
	t, ok := b.timers[id]
	if ok {
		delete(b.timers, id)
	}
	b.mu.Unlock()

	if ok {
		t.Stop()
	}
}

// timerEntry is a pending callback in a VirtualBridge's queue, ordered
// by (deadline, sequence): ties between timers armed within the same
// Advance fire in the order they were set.
type timerEntry struct {
	id       TimerId
	deadline time.Duration
	seq      uint64
	cb       func()
	live     bool
}

func timerEntryBefore(a, b *timerEntry) bool {
	if a.deadline != b.deadline {
		return a.deadline < b.deadline
	}
	return a.seq < b.seq
}

// timerQueue is a binary min-heap of pending timers, ordered by
// timerEntryBefore. A timer-by-deadline queue only ever needs
// due-soonest-first, so a heap — O(log n) Push/Pop by sifting along a
// single root-to-leaf path, no shifting of the rest of the slice — is
// the right shape for it, unlike a fully sorted structure.
type timerQueue struct {
	entries []*timerEntry
}

func (q *timerQueue) Empty() bool {
	return len(q.entries) == 0
}

func (q *timerQueue) Push(v *timerEntry) {
	q.entries = append(q.entries, v)
	q.siftUp(len(q.entries) - 1)
}

// Peek returns the due-soonest timer without removing it.
func (q *timerQueue) Peek() (v *timerEntry, ok bool) {
	if q.Empty() {
		return nil, false
	}
	return q.entries[0], true
}

func (q *timerQueue) Pop() *timerEntry {
	top := q.entries[0]
	last := len(q.entries) - 1
	q.entries[0] = q.entries[last]
	q.entries[last] = nil
	q.entries = q.entries[:last]
	if len(q.entries) > 0 {
		q.siftDown(0)
	}
	return top
}

func (q *timerQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !timerEntryBefore(q.entries[i], q.entries[parent]) {
			return
		}
		q.entries[i], q.entries[parent] = q.entries[parent], q.entries[i]
		i = parent
	}
}

func (q *timerQueue) siftDown(i int) {
	n := len(q.entries)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && timerEntryBefore(q.entries[left], q.entries[smallest]) {
			smallest = left
		}
		if right < n && timerEntryBefore(q.entries[right], q.entries[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		q.entries[i], q.entries[smallest] = q.entries[smallest], q.entries[i]
		i = smallest
	}
}

// VirtualBridge is a deterministic HostBridge for tests: it does not
// sleep. Advance moves a fake clock forward and fires every timer whose
// deadline has passed, in deadline order (ties broken by arrival),
// letting timeout/race/cancel tests run instantly instead of sleeping.
type VirtualBridge struct {
	mu     sync.Mutex
	now    time.Duration
	nextID TimerId
	seq    uint64
	pq     timerQueue
	byID   map[TimerId]*timerEntry
}

// NewVirtualBridge returns a VirtualBridge whose clock starts at zero.
func NewVirtualBridge() *VirtualBridge {
	return &VirtualBridge{byID: make(map[TimerId]*timerEntry)}
}

// SetTimeout implements HostBridge. cb runs synchronously from inside
// Advance (or RunAll), never from SetTimeout itself and never from its
// own goroutine; a d<=0 timer waits for the next Advance like any other.
func (b *VirtualBridge) SetTimeout(cb func(), d time.Duration) TimerId {
	if d < 0 {
		d = 0
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.seq++
	e := &timerEntry{id: id, deadline: b.now + d, seq: b.seq, cb: cb, live: true}
	b.byID[id] = e
	b.pq.Push(e)
	b.mu.Unlock()

	return id
}

// ClearTimeout implements HostBridge.
func (b *VirtualBridge) ClearTimeout(id TimerId) {
	b.mu.Lock()
	if e, ok := b.byID[id]; ok {
		e.live = false
		delete(b.byID, id)
	}
	b.mu.Unlock()
}

// Now returns the current virtual time.
func (b *VirtualBridge) Now() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

// Advance moves the virtual clock forward by d and runs every timer
// whose deadline is now due, in deadline order.
func (b *VirtualBridge) Advance(d time.Duration) {
	b.mu.Lock()
	b.now += d
	deadline := b.now
	b.mu.Unlock()

	for {
		b.mu.Lock()
		if b.pq.Empty() {
			b.mu.Unlock()
			return
		}

		e := b.pq.Pop()
		if e.deadline > deadline {
			b.pq.Push(e)
			b.mu.Unlock()
			return
		}

		live := e.live
		if live {
			delete(b.byID, e.id)
		}
		b.mu.Unlock()

		if live {
			e.cb()
		}
	}
}

// RunAll repeatedly advances to the next pending deadline until no
// timers remain, for tests that just want "let everything settle."
func (b *VirtualBridge) RunAll() {
	for {
		b.mu.Lock()
		e, ok := b.pq.Peek()
		if !ok {
			b.mu.Unlock()
			return
		}
		next, now := e.deadline, b.now
		b.mu.Unlock()

		if next < now {
			next = now
		}
		b.Advance(next - now)
	}
}

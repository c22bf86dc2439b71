package async

import (
	"strconv"
	"strings"
)

// A Scope is an immutable path of frame ids, root first. It tags every
// outstanding callback registered with an Executor so that cancellation
// can target a whole subtree of them at once.
//
// The empty Scope is the global scope. Scopes are values: copying one
// is free, and two Scopes with the same ids in the same order compare
// equal regardless of how they were built.
type Scope struct {
	ids []int
}

// RootScope returns the empty (global) Scope.
func RootScope() Scope { return Scope{} }

// Child returns the Scope formed by appending id to s.
func (s Scope) Child(id int) Scope {
	ids := make([]int, len(s.ids)+1)
	copy(ids, s.ids)
	ids[len(s.ids)] = id
	return Scope{ids: ids}
}

// Contains reports whether s is a prefix of child, i.e. child is in
// scope of s (cancelling s would cancel child too). Every Scope
// contains itself.
func (s Scope) Contains(child Scope) bool {
	if len(s.ids) > len(child.ids) {
		return false
	}
	for i, id := range s.ids {
		if child.ids[i] != id {
			return false
		}
	}
	return true
}

// Equal reports whether s and other name the same path.
func (s Scope) Equal(other Scope) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for i, id := range s.ids {
		if other.ids[i] != id {
			return false
		}
	}
	return true
}

// String renders s as a dotted path, e.g. "0.3.1". The empty scope
// renders as "/".
func (s Scope) String() string {
	if len(s.ids) == 0 {
		return "/"
	}
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ".")
}

// Depth returns the number of frames in s.
func (s Scope) Depth() int { return len(s.ids) }

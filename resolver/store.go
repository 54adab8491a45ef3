package resolver

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/consensys/witness"
	"github.com/consensys/witness/debug"
)

// valueStore holds one value slot and one readiness flag per Place. Cells are
// single-writer: the value is written strictly before the flag is raised
// (release on the writer, acquire on the reader), and a raised flag never
// resets. That pairing is the only synchronization on the value level; all
// contention lives in the eligibility bookkeeping of the sorters.
type valueStore[E any] struct {
	values []E
	flags  []atomic.Uint32
}

func newValueStore[E any](maxVariables int) *valueStore[E] {
	return &valueStore[E]{
		values: make([]E, maxVariables),
		flags:  make([]atomic.Uint32, maxVariables),
	}
}

// publish writes the value and raises the readiness flag. Must be called at
// most once per Place; the claim bookkeeping in resolverBox enforces that.
func (s *valueStore[E]) publish(v witness.Place, value E) {
	s.values[v] = value
	s.flags[v].Store(1)
}

func (s *valueStore[E]) isSet(v witness.Place) bool {
	return s.flags[v].Load() == 1
}

// TryGetValue implements witness.Source.
func (s *valueStore[E]) TryGetValue(v witness.Place) (E, bool) {
	if s.flags[v].Load() == 0 {
		var zero E
		return zero, false
	}
	return s.values[v], true
}

// GetValueUnchecked implements witness.Source.
func (s *valueStore[E]) GetValueUnchecked(v witness.Place) E {
	if debug.Debug {
		debug.Assert(int(v) < len(s.values), "place out of range")
		debug.Assert(s.flags[v].Load() == 1, "place read before resolution")
	}
	return s.values[v]
}

// GetAwaiter implements witness.SourceAwaitable.
func (s *valueStore[E]) GetAwaiter(vars ...witness.Place) witness.Awaiter {
	return &storeAwaiter[E]{store: s, vars: vars}
}

const (
	awaiterSpins         = 16
	awaiterSleepInterval = 10 * time.Millisecond
)

// storeAwaiter blocks until a fixed set of Places is resolved, with a bounded
// busy-spin followed by periodic sleep. Readiness is monotonic, so polling
// cannot miss a wakeup.
type storeAwaiter[E any] struct {
	store *valueStore[E]
	vars  []witness.Place
}

func (a *storeAwaiter[E]) Wait() {
	for _, v := range a.vars {
		flag := &a.store.flags[v]
		ready := false
		for i := 0; i < awaiterSpins; i++ {
			if flag.Load() == 1 {
				ready = true
				break
			}
			runtime.Gosched()
		}
		for !ready {
			time.Sleep(awaiterSleepInterval)
			ready = flag.Load() == 1
		}
	}
}

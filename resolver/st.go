package resolver

import (
	"github.com/consensys/witness"
)

// StCircuitResolver is the single-threaded façade: every resolution runs
// inline on the producer goroutine the moment it becomes eligible. No worker
// pool, no real concurrency; useful for deterministic debugging. It still
// realizes an order and can emit a ResolutionRecord.
type StCircuitResolver[E any] struct {
	opts   CircuitResolverOpts
	sorter *discoverSorter[E]
	common *resolverCommonData[E]
}

// NewStCircuitResolver builds a single-threaded resolver.
func NewStCircuitResolver[E any](opts CircuitResolverOpts) *StCircuitResolver[E] {
	r := &StCircuitResolver[E]{opts: opts}
	r.sorter, r.common = newDiscoverSorter[E](opts, true)
	return r
}

// SetValue implements CircuitResolver.
func (r *StCircuitResolver[E]) SetValue(v witness.Place, value E) error {
	return r.sorter.SetValue(v, value)
}

// AddResolution implements CircuitResolver. Eligible work, including
// dependents promoted by this registration's eventual outputs, executes
// before the call returns.
func (r *StCircuitResolver[E]) AddResolution(inputs, outputs []witness.Place, f witness.Resolution[E]) error {
	return r.sorter.AddResolution(inputs, outputs, f)
}

// WaitTillResolved implements CircuitResolver. Everything eligible has
// already run inline, so this only reports the session outcome.
func (r *StCircuitResolver[E]) WaitTillResolved() error {
	return r.sorter.FinalFlush()
}

// RetrieveSequence returns the realized schedule. The order derives from the
// registration stream alone, so it matches what the multithreaded façade
// would record for the same stream.
func (r *StCircuitResolver[E]) RetrieveSequence() *ResolutionRecord {
	return r.sorter.RetrieveSequence()
}

// Clear implements CircuitResolver.
func (r *StCircuitResolver[E]) Clear() {
	r.sorter, r.common = newDiscoverSorter[E](r.opts, true)
}

// TryGetValue implements witness.Source.
func (r *StCircuitResolver[E]) TryGetValue(v witness.Place) (E, bool) {
	return r.common.store.TryGetValue(v)
}

// GetValueUnchecked implements witness.Source.
func (r *StCircuitResolver[E]) GetValueUnchecked(v witness.Place) E {
	return r.common.store.GetValueUnchecked(v)
}

// GetAwaiter implements witness.SourceAwaitable.
func (r *StCircuitResolver[E]) GetAwaiter(vars ...witness.Place) witness.Awaiter {
	return r.common.store.GetAwaiter(vars...)
}

package resolver

import (
	"github.com/consensys/witness"
)

// NullCircuitResolver is a stub façade that accepts and drops everything;
// used when a pipeline runs without witness generation.
type NullCircuitResolver[E any] struct{}

func NewNullCircuitResolver[E any]() *NullCircuitResolver[E] {
	return &NullCircuitResolver[E]{}
}

func (NullCircuitResolver[E]) SetValue(witness.Place, E) error { return nil }

func (NullCircuitResolver[E]) AddResolution([]witness.Place, []witness.Place, witness.Resolution[E]) error {
	return nil
}

func (NullCircuitResolver[E]) WaitTillResolved() error { return nil }

func (NullCircuitResolver[E]) Clear() {}

func (NullCircuitResolver[E]) TryGetValue(witness.Place) (E, bool) {
	var zero E
	return zero, false
}

func (NullCircuitResolver[E]) GetValueUnchecked(witness.Place) E {
	var zero E
	return zero
}

func (NullCircuitResolver[E]) GetAwaiter(...witness.Place) witness.Awaiter {
	return nullAwaiter{}
}

type nullAwaiter struct{}

func (nullAwaiter) Wait() {}

// Package resolver implements the witness dependency-resolution and
// scheduling engine.
//
// A circuit builder feeds the engine a stream of direct value assignments
// (SetValue) and derived-value registrations (AddResolution). Each
// registration names its input and output Places and carries a closure that
// computes the outputs once every input is known. The engine discovers a
// valid execution order on the fly, runs independent resolutions with bounded
// parallelism and, once a session completes, can emit a ResolutionRecord of
// the realized schedule. A later session over a circuit of identical shape
// (same registration sequence, different values) can replay that record and
// skip dependency analysis entirely.
//
// Three façades are provided: MtCircuitResolver (worker pool, discover or
// playback scheduling), StCircuitResolver (inline execution on the producer
// goroutine, for deterministic debugging) and NullCircuitResolver (a stub
// that drops everything).
package resolver

import (
	"errors"

	"github.com/consensys/witness"
)

// ResolverIx is a stable arena handle to a registered resolution. Handles are
// never reused within a session; Clear invalidates all of them.
type ResolverIx uint32

// DefaultParallelism is the window capacity used when
// CircuitResolverOpts.DesiredParallelism is left zero.
const DefaultParallelism = 1 << 12

var (
	// ErrDuplicateOutput is returned when a resolution claims an output Place
	// already claimed by another resolution or by a direct assignment.
	ErrDuplicateOutput = errors.New("output place already claimed")

	// ErrDuplicateAssignment is returned when SetValue targets a Place that
	// already holds a value or is claimed as a resolution output.
	ErrDuplicateAssignment = errors.New("place already assigned")

	// ErrUnresolvedDependency is returned by WaitTillResolved when
	// registrations remain permanently ineligible because some required input
	// Place was never supplied. Fatal for the session.
	ErrUnresolvedDependency = errors.New("unresolved dependency")

	// ErrRecordMismatch is returned when a playback record disagrees with the
	// shape of the live session. Fatal for the session.
	ErrRecordMismatch = errors.New("resolution record mismatch")
)

// CircuitResolverOpts sizes a resolver. Immutable after construction.
type CircuitResolverOpts struct {
	// MaxVariables bounds the Place identifier space.
	MaxVariables int

	// DesiredParallelism caps the number of in-flight resolutions and sizes
	// the worker pool of the multithreaded façade.
	DesiredParallelism uint32
}

// NewCircuitResolverOpts returns options for maxVariables Places with the
// default parallelism.
func NewCircuitResolverOpts(maxVariables int) CircuitResolverOpts {
	return CircuitResolverOpts{
		MaxVariables:       maxVariables,
		DesiredParallelism: DefaultParallelism,
	}
}

func (opts CircuitResolverOpts) parallelism() uint32 {
	if opts.DesiredParallelism == 0 {
		return DefaultParallelism
	}
	return opts.DesiredParallelism
}

// CircuitResolver is the public face of the engine, composed by all three
// façade variants.
type CircuitResolver[E any] interface {
	witness.SourceAwaitable[E]

	// SetValue assigns a value to a Place directly.
	SetValue(v witness.Place, value E) error

	// AddResolution registers a derived-value computation. Registration never
	// blocks; outputs become visible only once the closure has run.
	AddResolution(inputs, outputs []witness.Place, f witness.Resolution[E]) error

	// WaitTillResolved blocks until every registered output holds a value, or
	// until the session fails.
	WaitTillResolved() error

	// Clear resets all internal state for reuse. Retrieved records stay valid.
	Clear()
}

var (
	_ CircuitResolver[uint64] = (*MtCircuitResolver[uint64])(nil)
	_ CircuitResolver[uint64] = (*StCircuitResolver[uint64])(nil)
	_ CircuitResolver[uint64] = (*NullCircuitResolver[uint64])(nil)

	_ Sorter[uint64] = (*discoverSorter[uint64])(nil)
	_ Sorter[uint64] = (*playbackSorter[uint64])(nil)
)

package resolver

import (
	"github.com/consensys/witness"
)

// Sorter is the sorting strategy of a resolver session: it converts the
// registration stream into dispatch decisions. Two implementations exist,
// chosen at façade construction.
//
//   - discover mode derives the execution order from scratch, paying the full
//     dependency-analysis cost once per circuit shape and emitting a
//     ResolutionRecord of the realized order;
//   - playback mode replays a previously captured record for a circuit of the
//     same shape, skipping dependency analysis. That amortizes the discovery
//     cost across every later instance of the shape, e.g. in batch proof
//     generation.
type Sorter[E any] interface {
	completionSink

	// SetValue records a direct assignment and promotes any resolutions it
	// makes eligible.
	SetValue(v witness.Place, value E) error

	// AddResolution internalizes a task into the arena. Detects duplicate
	// outputs synchronously; never blocks on a full window.
	AddResolution(inputs, outputs []witness.Place, f witness.Resolution[E]) error

	// Flush admits eligible tasks into execution up to remaining window
	// capacity.
	Flush()

	// FinalFlush is called once no further registrations or assignments will
	// arrive. It drains everything and blocks until the session is complete,
	// stalled (ErrUnresolvedDependency) or poisoned.
	FinalFlush() error

	// WriteSequence serializes the realized order into a resolution record.
	// Meaningful after FinalFlush; idempotent.
	WriteSequence() *ResolutionRecord

	// RetrieveSequence returns the session's record, writing it first if
	// needed.
	RetrieveSequence() *ResolutionRecord
}

package resolver

import (
	"runtime"

	"github.com/consensys/witness"
	"github.com/consensys/witness/logger"
)

// MtCircuitResolver is the multithreaded façade: a fixed worker pool drains
// the resolution window while the producer goroutine keeps registering. The
// sorting strategy is chosen at construction; NewMtCircuitResolver discovers
// the order, NewMtCircuitResolverWithRecord replays a captured one.
//
// The producer side (SetValue, AddResolution, WaitTillResolved, Clear) must
// stay on a single goroutine. The witness.Source side is safe to use from any
// goroutine.
type MtCircuitResolver[E any] struct {
	opts   CircuitResolverOpts
	source RecordSource // nil in discover mode

	sorter Sorter[E]
	common *resolverCommonData[E]
	comms  *resolverComms[E]
}

// NewMtCircuitResolver builds a discover-mode multithreaded resolver.
func NewMtCircuitResolver[E any](opts CircuitResolverOpts) *MtCircuitResolver[E] {
	r := &MtCircuitResolver[E]{opts: opts}
	sorter, common := newDiscoverSorter[E](opts, false)
	r.launch(sorter, common)
	return r
}

// NewMtCircuitResolverWithRecord builds a playback-mode multithreaded
// resolver driven by the record in source. Fails with ErrRecordMismatch if
// the record is malformed; shape disagreements with the live session surface
// later, at the earliest call that deviates.
func NewMtCircuitResolverWithRecord[E any](opts CircuitResolverOpts, source RecordSource) (*MtCircuitResolver[E], error) {
	r := &MtCircuitResolver[E]{opts: opts, source: source}
	sorter, common, err := newPlaybackSorter[E](opts, source.Get())
	if err != nil {
		return nil, err
	}
	r.launch(sorter, common)
	return r, nil
}

func (r *MtCircuitResolver[E]) launch(sorter Sorter[E], common *resolverCommonData[E]) {
	r.sorter = sorter
	r.common = common
	workers := r.workerCount()
	r.comms = startResolverComms(common, sorter, workers)

	log := logger.Logger()
	log.Debug().
		Int("maxVariables", r.opts.MaxVariables).
		Uint32("parallelism", r.opts.parallelism()).
		Int("workers", workers).
		Bool("playback", r.source != nil).
		Msg("circuit resolver started")
}

func (r *MtCircuitResolver[E]) workerCount() int {
	n := runtime.GOMAXPROCS(0)
	if p := int(r.opts.parallelism()); p < n {
		n = p
	}
	return n
}

// SetValue implements CircuitResolver.
func (r *MtCircuitResolver[E]) SetValue(v witness.Place, value E) error {
	return r.sorter.SetValue(v, value)
}

// AddResolution implements CircuitResolver.
func (r *MtCircuitResolver[E]) AddResolution(inputs, outputs []witness.Place, f witness.Resolution[E]) error {
	return r.sorter.AddResolution(inputs, outputs, f)
}

// WaitTillResolved implements CircuitResolver: it drains the window and
// blocks until every registered output has a value, the session stalls
// (ErrUnresolvedDependency) or a closure fails.
func (r *MtCircuitResolver[E]) WaitTillResolved() error {
	return r.sorter.FinalFlush()
}

// RetrieveSequence returns the realized schedule of the session, for storage
// behind a RecordWriter and replay of identically shaped circuits. In
// playback mode it returns the driving record verbatim.
func (r *MtCircuitResolver[E]) RetrieveSequence() *ResolutionRecord {
	return r.sorter.RetrieveSequence()
}

// Clear implements CircuitResolver: it tears down the worker pool and resets
// all internal state for reuse with the same options. Previously retrieved
// records stay valid.
func (r *MtCircuitResolver[E]) Clear() {
	r.comms.shutdown()
	if r.source != nil {
		sorter, common, err := newPlaybackSorter[E](r.opts, r.source.Get())
		if err != nil {
			// the record was valid at construction; a source changing
			// underneath a session is a caller bug
			panic(err)
		}
		r.launch(sorter, common)
		return
	}
	sorter, common := newDiscoverSorter[E](r.opts, false)
	r.launch(sorter, common)
}

// Close tears down the worker pool without resetting state. Values remain
// readable through the witness.Source side.
func (r *MtCircuitResolver[E]) Close() {
	r.comms.shutdown()
}

// TryGetValue implements witness.Source.
func (r *MtCircuitResolver[E]) TryGetValue(v witness.Place) (E, bool) {
	return r.common.store.TryGetValue(v)
}

// GetValueUnchecked implements witness.Source.
func (r *MtCircuitResolver[E]) GetValueUnchecked(v witness.Place) E {
	return r.common.store.GetValueUnchecked(v)
}

// GetAwaiter implements witness.SourceAwaitable.
func (r *MtCircuitResolver[E]) GetAwaiter(vars ...witness.Place) witness.Awaiter {
	return r.common.store.GetAwaiter(vars...)
}

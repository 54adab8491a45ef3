package resolver

import (
	"fmt"
	"slices"
	"sync"

	"github.com/consensys/witness"
	"github.com/consensys/witness/logger"
)

// discoverSorter implements discover mode: it derives the execution order
// from scratch with the guide's pending-input counters and the bounded
// resolution window. Events advance a unified clock counting both direct
// assignments and registrations; the clock stamps the addedAt/acceptedAt
// fields of the realized order.
//
// A single mutex guards all bookkeeping. The producer goroutine enters
// through SetValue/AddResolution, workers through onResolved/poison. Value
// cells themselves are lock-free (see valueStore).
type discoverSorter[E any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	common *resolverCommonData[E]
	guide  *guide
	window *resolutionWindow // nil when inline

	// inline mode executes every task on the calling goroutine as soon as it
	// becomes eligible; used by the single-threaded façade.
	inline   bool
	queue    []ResolverIx
	draining bool

	clock         uint64
	registrations uint64
	values        uint64
	completed     uint64

	finalized bool
	err       error
	record    *ResolutionRecord
}

func newDiscoverSorter[E any](opts CircuitResolverOpts, inline bool) (*discoverSorter[E], *resolverCommonData[E]) {
	common := &resolverCommonData[E]{
		store: newValueStore[E](opts.MaxVariables),
		box:   newResolverBox[E](opts.MaxVariables),
	}
	s := &discoverSorter[E]{
		common: common,
		guide:  newGuide(opts.MaxVariables),
		inline: inline,
	}
	s.cond = sync.NewCond(&s.mu)
	if !inline {
		s.window = newResolutionWindow(opts.parallelism())
		common.exec = s.window.exec
	}
	return s, common
}

func (s *discoverSorter[E]) SetValue(v witness.Place, value E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if err := s.common.box.claimValue(v); err != nil {
		return err
	}
	s.clock++
	s.values++
	s.common.store.publish(v, value)
	s.guide.acceptValue(v, s.clock)
	s.promoteLocked(s.guide.notifyReady(v))
	return s.err
}

func (s *discoverSorter[E]) AddResolution(inputs, outputs []witness.Place, f witness.Resolution[E]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	ix, err := s.common.box.internalize(inputs, outputs, f, s.clock+1)
	if err != nil {
		return err
	}
	s.clock++
	s.registrations++
	if s.guide.register(ix, inputs, outputs, s.common.store.isSet, s.clock) {
		s.promoteLocked([]ResolverIx{ix})
	}
	return s.err
}

// promoteLocked accepts a batch of newly eligible tasks into the realized
// order and hands it to the window (or to the inline queue).
func (s *discoverSorter[E]) promoteLocked(batch []ResolverIx) {
	if len(batch) == 0 {
		return
	}
	slices.Sort(batch) // FIFO by registration number; arena order is registration order
	if s.inline {
		s.queue = append(s.queue, batch...)
		if !s.draining {
			s.drainLocked()
		}
		return
	}
	s.window.admit(batch)
}

// drainLocked runs the inline queue to exhaustion, promoting dependents as
// outputs land.
func (s *discoverSorter[E]) drainLocked() {
	s.draining = true
	defer func() { s.draining = false }()

	for s.err == nil && len(s.queue) > 0 {
		ix := s.queue[0]
		s.queue = s.queue[1:]
		if err := runResolution(s.common, ix); err != nil {
			s.err = err
			return
		}
		s.completed++
		var batch []ResolverIx
		for _, v := range s.common.box.get(ix).outputs {
			batch = append(batch, s.guide.notifyReady(v)...)
		}
		s.promoteLocked(batch)
	}
}

func (s *discoverSorter[E]) onResolved(ix ResolverIx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	s.window.onComplete()
	var batch []ResolverIx
	for _, v := range s.common.box.get(ix).outputs {
		batch = append(batch, s.guide.notifyReady(v)...)
	}
	s.promoteLocked(batch)
	if s.finalized {
		s.cond.Broadcast()
	}
}

func (s *discoverSorter[E]) poison(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *discoverSorter[E]) Flush() {
	s.mu.Lock()
	if s.window != nil {
		s.window.flush()
	}
	s.mu.Unlock()
}

func (s *discoverSorter[E]) FinalFlush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = true
	if s.window != nil {
		s.window.flush()
	}
	for s.err == nil && s.completed < s.registrations {
		if s.window == nil || s.window.idle() {
			// no task is running and none can become eligible anymore
			s.err = fmt.Errorf("%w: %d resolutions still waiting on inputs that were never supplied",
				ErrUnresolvedDependency, s.guide.pendingCount())
			break
		}
		s.cond.Wait()
	}
	return s.err
}

func (s *discoverSorter[E]) WriteSequence() *ResolutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeSequenceLocked()
}

func (s *discoverSorter[E]) writeSequenceLocked() *ResolutionRecord {
	if s.record == nil {
		s.record = s.guide.writeRecord(s.registrations, s.values)
		log := logger.Logger()
		log.Debug().
			Int("items", len(s.record.Items)).
			Uint64("registrations", s.record.RegistrationsCount).
			Uint64("values", s.record.ValuesCount).
			Msg("resolution sequence written")
	}
	return s.record
}

func (s *discoverSorter[E]) RetrieveSequence() *ResolutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeSequenceLocked()
}

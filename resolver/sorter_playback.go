package resolver

import (
	"fmt"
	"sync"

	"github.com/consensys/witness"
)

// playbackSorter implements playback mode: dispatch order and batching come
// straight from a previously captured ResolutionRecord, with no pending-input
// counters recomputed. The record's realized order is dependency-safe by
// construction, and every batch is a set of mutually independent tasks, so
// the replay dispatches batch after batch, gating each on the live event
// clock reaching the recorded acceptance point.
//
// Record/session shape agreement is enforced three ways: structural record
// validation at construction, overrun detection at the offending call, and
// an exact count comparison at FinalFlush.
type playbackSorter[E any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	common *resolverCommonData[E]
	record *ResolutionRecord

	// tasks maps the event-clock value of each registration to its arena
	// handle; the record's AddedAt fields key into it.
	tasks map[uint64]ResolverIx

	next   int    // next record item to dispatch
	active uint32 // tasks of the current batch still executing

	clock         uint64
	registrations uint64
	values        uint64
	completed     uint64

	finalized bool
	err       error
}

func newPlaybackSorter[E any](opts CircuitResolverOpts, record *ResolutionRecord) (*playbackSorter[E], *resolverCommonData[E], error) {
	maxBatch, err := validateRecord(record)
	if err != nil {
		return nil, nil, err
	}
	common := &resolverCommonData[E]{
		store: newValueStore[E](opts.MaxVariables),
		box:   newResolverBox[E](opts.MaxVariables),
		// a record captured with a larger window than this session's must
		// still fit one whole batch
		exec: make(chan ResolverIx, max(opts.parallelism(), maxBatch)),
	}
	s := &playbackSorter[E]{
		common: common,
		record: record,
		tasks:  make(map[uint64]ResolverIx, len(record.Items)),
	}
	s.cond = sync.NewCond(&s.mu)
	return s, common, nil
}

// validateRecord checks the record's internal consistency before any task is
// dispatched and returns the largest batch size it contains.
func validateRecord(record *ResolutionRecord) (uint32, error) {
	if record == nil {
		return 0, fmt.Errorf("%w: no record supplied", ErrRecordMismatch)
	}
	if uint64(len(record.Items)) != record.RegistrationsCount {
		return 0, fmt.Errorf("%w: %d items for %d registrations",
			ErrRecordMismatch, len(record.Items), record.RegistrationsCount)
	}
	var maxBatch uint32
	for i := 0; i < len(record.Items); {
		par := int(record.Items[i].Parallelism)
		if par < 1 || i+par > len(record.Items) {
			return 0, fmt.Errorf("%w: malformed batch at order position %d", ErrRecordMismatch, i)
		}
		for j := i; j < i+par; j++ {
			it := &record.Items[j]
			if int(it.Parallelism) != par || it.OrderIx != uint64(j) || it.AcceptedAt < it.AddedAt {
				return 0, fmt.Errorf("%w: malformed item at order position %d", ErrRecordMismatch, j)
			}
		}
		maxBatch = max(maxBatch, uint32(par))
		i += par
	}
	return maxBatch, nil
}

func (s *playbackSorter[E]) SetValue(v witness.Place, value E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.values == s.record.ValuesCount {
		s.err = fmt.Errorf("%w: more direct assignments than the recorded %d",
			ErrRecordMismatch, s.record.ValuesCount)
		return s.err
	}
	if err := s.common.box.claimValue(v); err != nil {
		return err
	}
	s.clock++
	s.values++
	s.common.store.publish(v, value)
	s.dispatchLocked()
	return nil
}

func (s *playbackSorter[E]) AddResolution(inputs, outputs []witness.Place, f witness.Resolution[E]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.registrations == s.record.RegistrationsCount {
		s.err = fmt.Errorf("%w: more registrations than the recorded %d",
			ErrRecordMismatch, s.record.RegistrationsCount)
		return s.err
	}
	ix, err := s.common.box.internalize(inputs, outputs, f, s.clock+1)
	if err != nil {
		return err
	}
	s.clock++
	s.registrations++
	s.tasks[s.clock] = ix
	s.dispatchLocked()
	return nil
}

// dispatchLocked admits the next recorded batch once the previous batch has
// fully completed and the live clock has reached the batch's acceptance
// point. Batches never interleave, so the recorded independence guarantee is
// all that is needed for correctness.
func (s *playbackSorter[E]) dispatchLocked() {
	items := s.record.Items
	for s.err == nil && s.active == 0 && s.next < len(items) {
		par := int(items[s.next].Parallelism)
		for j := s.next; j < s.next+par; j++ {
			if items[j].AcceptedAt > s.clock {
				return
			}
			if _, ok := s.tasks[items[j].AddedAt]; !ok {
				return
			}
		}
		for j := s.next; j < s.next+par; j++ {
			s.common.exec <- s.tasks[items[j].AddedAt]
		}
		s.active = uint32(par)
		s.next += par
	}
}

func (s *playbackSorter[E]) onResolved(ResolverIx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	s.active--
	if s.active == 0 {
		s.dispatchLocked()
	}
	if s.finalized {
		s.cond.Broadcast()
	}
}

func (s *playbackSorter[E]) poison(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *playbackSorter[E]) Flush() {
	s.mu.Lock()
	if s.active == 0 {
		s.dispatchLocked()
	}
	s.mu.Unlock()
}

func (s *playbackSorter[E]) FinalFlush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = true
	if s.err == nil && (s.registrations != s.record.RegistrationsCount || s.values != s.record.ValuesCount) {
		s.err = fmt.Errorf("%w: session has %d registrations and %d values, record has %d and %d",
			ErrRecordMismatch, s.registrations, s.values,
			s.record.RegistrationsCount, s.record.ValuesCount)
	}
	if s.err == nil && s.active == 0 {
		s.dispatchLocked()
	}
	for s.err == nil && s.completed < s.registrations {
		if s.active == 0 {
			s.err = fmt.Errorf("%w: replay stalled at order position %d", ErrUnresolvedDependency, s.next)
			break
		}
		s.cond.Wait()
	}
	return s.err
}

// WriteSequence returns the driving record verbatim; a playback session
// realizes exactly the order it replays.
func (s *playbackSorter[E]) WriteSequence() *ResolutionRecord {
	return s.record
}

func (s *playbackSorter[E]) RetrieveSequence() *ResolutionRecord {
	return s.record
}
